package whatsapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a Graph API JSON object that remembers its key order, so
// listings follow the order the API returned.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object { return orderedmap.New[string, any]() }

// FormatPhoneNumber strips every non-digit and prefixes "+".
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	b.Grow(len(phone) + 1)
	b.WriteByte('+')
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// display renders a JSON value the way it reads in a listing: strings
// verbatim, integral numbers without a fraction, arrays comma separated.
func display(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = display(item)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// isScalar reports whether v is a non-null JSON primitive.
func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, json.Number, bool:
		return true
	default:
		return false
	}
}

func formatTemplateList(templates []messageTemplate) string {
	lines := make([]string, len(templates))
	for i, t := range templates {
		lines[i] = fmt.Sprintf("- %s (%s): %s", t.Name, t.Category, t.Status)
	}
	return "Message Templates:\n" + strings.Join(lines, "\n")
}

func formatBusinessProfile(profile *Object) string {
	var b strings.Builder
	b.WriteString("Business Profile:\n")
	for p := profile.Oldest(); p != nil; p = p.Next() {
		if p.Key == "id" {
			continue
		}
		value := display(p.Value)
		if items, ok := p.Value.([]any); ok {
			parts := make([]string, len(items))
			for i, item := range items {
				parts[i] = display(item)
			}
			value = strings.Join(parts, ", ")
		}
		fmt.Fprintf(&b, "%s: %s\n", p.Key, value)
	}
	return b.String()
}

func formatPhoneNumberList(phones []phoneNumber) string {
	lines := make([]string, len(phones))
	for i, p := range phones {
		lines[i] = fmt.Sprintf("- %s (ID: %s): %s", p.DisplayPhoneNumber, p.ID, p.Status)
	}
	return "Phone Numbers:\n" + strings.Join(lines, "\n")
}

// formatScalars lists the primitive members of obj under title.
func formatScalars(title string, obj *Object) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	for p := obj.Oldest(); p != nil; p = p.Next() {
		if isScalar(p.Value) {
			fmt.Fprintf(&b, "%s: %s\n", p.Key, display(p.Value))
		}
	}
	return b.String()
}

func formatWebhookInfo(obj *Object) string {
	var b strings.Builder
	b.WriteString("Webhook Information:\n")
	for p := obj.Oldest(); p != nil; p = p.Next() {
		switch v := p.Value.(type) {
		case []any:
			raw, _ := json.Marshal(v)
			fmt.Fprintf(&b, "%s: %s\n", p.Key, raw)
		default:
			if isScalar(v) {
				fmt.Fprintf(&b, "%s: %s\n", p.Key, display(v))
			}
		}
	}
	return b.String()
}

func templatesMarkdown(category string, templates []messageTemplate) string {
	var b strings.Builder
	b.WriteString("# WhatsApp Message Templates")
	if category != "" {
		b.WriteString(" - " + category)
	}
	b.WriteString("\n\n")

	if len(templates) == 0 {
		b.WriteString("No templates found.\n")
		return b.String()
	}
	for _, t := range templates {
		fmt.Fprintf(&b, "## %s\n", t.Name)
		fmt.Fprintf(&b, "- Category: %s\n", t.Category)
		fmt.Fprintf(&b, "- Status: %s\n", t.Status)
		fmt.Fprintf(&b, "- Language: %s\n\n", t.Language)
		if t.Components != nil {
			b.WriteString("### Components:\n")
			for _, c := range t.Components {
				fmt.Fprintf(&b, "- Type: %s\n", c.Type)
				if c.Text != "" {
					fmt.Fprintf(&b, "  Text: %s\n", c.Text)
				}
				if c.Format != "" {
					fmt.Fprintf(&b, "  Format: %s\n", c.Format)
				}
				if len(c.Buttons) > 0 {
					b.WriteString("  Buttons:\n")
					for _, btn := range c.Buttons {
						fmt.Fprintf(&b, "    - %s: %s\n", btn.Type, btn.Text)
					}
				}
				b.WriteString("\n")
			}
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

func templateDetailsMarkdown(t messageTemplate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Template: %s\n\n", t.Name)
	fmt.Fprintf(&b, "- Category: %s\n", t.Category)
	fmt.Fprintf(&b, "- Status: %s\n", t.Status)
	fmt.Fprintf(&b, "- Language: %s\n\n", t.Language)
	if t.Components == nil {
		return b.String()
	}
	b.WriteString("## Components:\n\n")
	for _, c := range t.Components {
		fmt.Fprintf(&b, "### %s\n", c.Type)
		if c.Text != "" {
			fmt.Fprintf(&b, "Text: %s\n\n", c.Text)
		}
		if c.Format != "" {
			fmt.Fprintf(&b, "Format: %s\n\n", c.Format)
		}
		if len(c.Buttons) > 0 {
			b.WriteString("Buttons:\n")
			for _, btn := range c.Buttons {
				fmt.Fprintf(&b, "- %s: %s\n", btn.Type, btn.Text)
				if btn.URL != "" {
					fmt.Fprintf(&b, "  URL: %s\n", btn.URL)
				}
				if btn.PhoneNumber != "" {
					fmt.Fprintf(&b, "  Phone: %s\n", btn.PhoneNumber)
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func businessProfileMarkdown(profile *Object) string {
	var b strings.Builder
	b.WriteString("# WhatsApp Business Profile\n\n")
	for p := profile.Oldest(); p != nil; p = p.Next() {
		if p.Key == "id" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n", p.Key)
		switch v := p.Value.(type) {
		case []any:
			for _, item := range v {
				fmt.Fprintf(&b, "- %s\n", display(item))
			}
			b.WriteString("\n")
		default:
			if p.Key == "profile_picture_url" && v != nil && v != "" {
				fmt.Fprintf(&b, "![Business Profile Picture](%s)\n\n", display(v))
				continue
			}
			fmt.Fprintf(&b, "%s\n\n", display(v))
		}
	}
	return b.String()
}

func phoneNumbersMarkdown(phones []phoneNumber) string {
	var b strings.Builder
	b.WriteString("# WhatsApp Phone Numbers\n\n")
	if len(phones) == 0 {
		b.WriteString("No phone numbers found.\n")
		return b.String()
	}
	for _, p := range phones {
		fmt.Fprintf(&b, "## %s\n\n", p.DisplayPhoneNumber)
		fmt.Fprintf(&b, "- ID: %s\n", p.ID)
		fmt.Fprintf(&b, "- Status: %s\n", p.Status)
		fmt.Fprintf(&b, "- Quality Rating: %s\n", orNA(p.QualityRating))
		fmt.Fprintf(&b, "- Name: %s\n", orNA(p.Name))
		fmt.Fprintf(&b, "- Verified: %s\n\n", orNA(p.VerifiedName))
		if p.CodeVerificationStatus != "" {
			fmt.Fprintf(&b, "- Verification Status: %s\n\n", p.CodeVerificationStatus)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

func phoneNumberDetailsMarkdown(obj *Object) string {
	var b strings.Builder
	name, _ := obj.Get("display_phone_number")
	fmt.Fprintf(&b, "# Phone Number: %s\n\n", display(name))
	for p := obj.Oldest(); p != nil; p = p.Next() {
		if isScalar(p.Value) {
			fmt.Fprintf(&b, "## %s\n%s\n\n", p.Key, display(p.Value))
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
