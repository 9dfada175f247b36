package formats

import "github.com/JonMunkholm/ContactPort/internal/core"

func init() {
	registerMailchimpAudience()
}

// registerMailchimpAudience covers the standard audience export produced by
// Mailchimp's "Export Audience" action. The column set varies with audience
// settings and merge fields, so everything beyond the email column is
// informational.
func registerMailchimpAudience() {
	core.Register(core.SourceFormat{
		Key:         "mailchimp",
		Name:        "Mailchimp audience export",
		Group:       "Mailchimp",
		Description: "Contact list exported from a Mailchimp audience (subscribed, unsubscribed, or cleaned segment).",
		EmailColumns: []string{
			"Email Address",
		},
		KnownColumns: []string{
			"Email Address",
			"First Name",
			"Last Name",
			"Address",
			"Phone Number",
			"Birthday",
			"MEMBER_RATING",
			"OPTIN_TIME",
			"OPTIN_IP",
			"CONFIRM_TIME",
			"CONFIRM_IP",
			"LATITUDE",
			"LONGITUDE",
			"GMTOFF",
			"DSTOFF",
			"TIMEZONE",
			"CC",
			"REGION",
			"LAST_CHANGED",
			"LEID",
			"EUID",
			"NOTES",
			"TAGS",
		},
	})
}
