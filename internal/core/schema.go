package core

// schema.go derives the fixed output column set for a conversion run.
//
// The output shape never varies per row: three base columns plus one
// topicPreferences.<name> column per configured topic, in configuration
// order. The schema is built once, before any input is read, so invalid
// topic configuration fails a run without touching either file.

// Base output columns, always present and always first, in this order.
const (
	ColumnEmailAddress   = "emailAddress"
	ColumnUnsubscribeAll = "unsubscribeAll"
	ColumnAttributesData = "attributesData"
)

// TopicColumnPrefix prefixes every topic preference column name.
const TopicColumnPrefix = "topicPreferences."

var baseColumns = []string{ColumnEmailAddress, ColumnUnsubscribeAll, ColumnAttributesData}

// OutputSchema is the precomputed shape shared by every output row of a run.
type OutputSchema struct {
	header []string
	// Constant values after the emailAddress column: "false" for
	// unsubscribeAll, "" for attributesData, then one preference literal
	// per topic.
	tail []string
}

// BuildSchema derives the output schema from the configured topics.
//
// Topic names are opaque strings inserted verbatim into column names. A
// topic is rejected when its name is empty, repeats an earlier topic, or
// equals one of the three base column names.
func BuildSchema(topics []TopicPreference) (*OutputSchema, error) {
	header := make([]string, 0, len(baseColumns)+len(topics))
	header = append(header, baseColumns...)

	tail := make([]string, 0, 2+len(topics))
	tail = append(tail, "false", "")

	seen := make(map[string]struct{}, len(topics))
	for _, tp := range topics {
		name := tp.Topic
		if name == "" {
			return nil, &SchemaError{Reason: "topic name must not be empty"}
		}
		if _, dup := seen[name]; dup {
			return nil, &SchemaError{Topic: name, Reason: "duplicate topic name"}
		}
		seen[name] = struct{}{}
		for _, base := range baseColumns {
			if name == base {
				return nil, &SchemaError{Topic: name, Reason: "collides with a base output column"}
			}
		}
		if !tp.Preference.valid() {
			return nil, &SchemaError{Topic: name, Reason: "preference must be OPT_IN or OPT_OUT"}
		}
		header = append(header, TopicColumnPrefix+name)
		tail = append(tail, string(tp.Preference))
	}

	return &OutputSchema{header: header, tail: tail}, nil
}

// Header returns the output header row.
func (s *OutputSchema) Header() []string {
	return s.header
}

// Row builds one output row for the given email address.
func (s *OutputSchema) Row(email string) []string {
	row := make([]string, 0, 1+len(s.tail))
	row = append(row, email)
	row = append(row, s.tail...)
	return row
}

// Columns returns the number of output columns.
func (s *OutputSchema) Columns() int {
	return len(s.header)
}

// TopicCount returns the number of configured topic columns.
func (s *OutputSchema) TopicCount() int {
	return len(s.header) - len(baseColumns)
}
