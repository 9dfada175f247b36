// Package core provides the business logic for contact CSV conversions.
//
// This package is the heart of the converter, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Source Formats: Registered via the registry, each format names the
//     export it accepts and where its email column lives.
//   - Output Schema: Built once per run from the topic configuration; fixes
//     the shape of every output row before the first input row is read.
//   - Service: The async entry point for managed conversions (jobs,
//     progress, history).
//   - Streaming: Memory-constant processing for arbitrarily large exports.
//
// # Source Format Registry
//
// Formats are registered at init time using [Register]. Each [SourceFormat]
// describes one supported export source:
//
//	core.Register(SourceFormat{
//	    Key:          "mailchimp",
//	    Group:        "Mailchimp",
//	    EmailColumns: []string{"Email Address"},
//	})
//
// Callers that resolve formats by key must import the formats package for
// its registrations, usually as a blank import.
//
// # Streaming Conversion
//
// Conversions process data in a single pass with O(buffer) memory usage,
// regardless of file size. The flow for a direct call is:
//
//  1. Client calls [ConvertFile] or [ConvertStream] with [Options]
//  2. The topic configuration is compiled into an [OutputSchema]
//  3. Input passes through BOM skipping and strict UTF-8 validation
//  4. Each CSV row maps to one output row, written as it is produced
//
// Managed conversions go through [Service.StartConversion] instead, which
// adds concurrency limits, progress broadcasting via
// [Service.SubscribeProgress], cancellation, and history recording.
//
// # Error Handling
//
// Every failure is fatal to its run: the first malformed row, decode
// failure, or write failure aborts the conversion and is reported with
// enough context to diagnose (line number, byte offset, or OS error).
// Sentinel errors and typed errors support errors.Is and errors.As;
// see errors.go. Technical errors are mapped to user-friendly messages
// with support codes using [MapError]:
//
//   - FILE001-FILE004: File errors (missing input, unwritable output)
//   - CSV001: Structural CSV errors
//   - ENC001: Encoding errors
//   - TOPIC001: Topic configuration errors
//   - CONV001-CONV004: Conversion lifecycle errors
package core
