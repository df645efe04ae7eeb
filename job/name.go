package job

import (
	"strings"
	"unicode"
)

// ResolveName derives the canonical job name for a descriptor.
//
// An explicit JobName always wins, verbatim. Otherwise the type name has a
// single trailing "Job" or "Cron" suffix stripped (checked in that order)
// and is converted to lowercase hyphen-separated form: a hyphen is inserted
// before each uppercase rune that follows a non-uppercase rune.
//
// ResolveName is pure and total — the same descriptor always yields the
// same name.
//
//	SendEmailNotificationJob → send-email-notification
//	DailyCleanupCron         → daily-cleanup
func ResolveName(d *Descriptor) string {
	if d.JobName != "" {
		return d.JobName
	}
	return kebab(stripSuffix(d.TypeName))
}

// stripSuffix removes one trailing handler suffix. "Job" is checked before
// "Cron"; only one suffix is ever stripped.
func stripSuffix(name string) string {
	if s := strings.TrimSuffix(name, "Job"); s != name {
		return s
	}
	return strings.TrimSuffix(name, "Cron")
}

// kebab converts PascalCase or camelCase to lowercase hyphen-separated
// form. Runs of uppercase stay together: "HTTPSync" → "httpsync", but
// "S3Sync" → "s3-sync".
func kebab(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	prevUpper := true // no hyphen before a leading uppercase rune
	for _, r := range name {
		upper := unicode.IsUpper(r)
		if upper && !prevUpper {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
		prevUpper = upper
	}
	return b.String()
}
