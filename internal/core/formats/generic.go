package formats

import "github.com/JonMunkholm/ContactPort/internal/core"

func init() {
	registerGenericCSV()
}

// registerGenericCSV accepts any header-bearing CSV that names an email
// column in one of the common spellings. Useful for hand-built lists and
// exports from tools without a dedicated format.
func registerGenericCSV() {
	core.Register(core.SourceFormat{
		Key:         "generic",
		Name:        "Generic contact CSV",
		Group:       "Generic",
		Description: "Any CSV with a header row and an email column under a common name.",
		EmailColumns: []string{
			"Email Address",
			"Email",
			"E-mail",
			"Email_Address",
			"EmailAddress",
		},
		KnownColumns: []string{
			"Email Address",
		},
	})
}
