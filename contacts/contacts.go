// Package contacts maps phone numbers to display names. The directory
// persists as one name,number line per contact; lookups are fuzzy on the
// number because the modem and the address book disagree about leading "+"
// and country codes.
package contacts

import (
	"fmt"
	"os"
	"strings"
)

// Contact is one directory entry.
type Contact struct {
	Name   string
	Number string
}

// Directory holds the loaded address book and its backing file path.
type Directory struct {
	path     string
	contacts []Contact
}

// Defaults is the built-in address book, used when the backing file is
// missing or unreadable.
func Defaults() []Contact {
	return []Contact{
		{Name: "Don (voip)", Number: "16512524765"},
		{Name: "Don (iphone)", Number: "17813230341"},
		{Name: "Liz", Number: "16174299144"},
	}
}

// Load reads the directory from path. On any load failure it falls back to
// the defaults and persists them, so the file exists for the next boot.
func Load(path string) *Directory {
	d := &Directory{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		d.contacts = Defaults()
		d.Save() // best effort, media may be absent
		return d
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, number, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		d.contacts = append(d.contacts, Contact{
			Name:   strings.TrimSpace(name),
			Number: strings.TrimSpace(number),
		})
	}

	if len(d.contacts) == 0 {
		d.contacts = Defaults()
		d.Save()
	}
	return d
}

// Save writes the directory back to its file, one name,number line per
// contact.
func (d *Directory) Save() error {
	var b strings.Builder
	for _, c := range d.contacts {
		fmt.Fprintf(&b, "%s,%s\n", c.Name, c.Number)
	}
	if err := os.WriteFile(d.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("save address book %q: %w", d.path, err)
	}
	return nil
}

// All returns the contacts in directory order.
func (d *Directory) All() []Contact {
	return d.contacts
}

// Add appends a contact. The caller decides when to Save.
func (d *Directory) Add(c Contact) {
	d.contacts = append(d.contacts, c)
}

// Lookup resolves a raw phone number to a display name. Matching is
// suffix-tolerant in both directions after stripping "+", "-" and spaces,
// which absorbs country-code and prefix differences. Unknown numbers fall
// back to a formatted rendering by length, else the cleaned digits.
func (d *Directory) Lookup(number string) string {
	clean := cleanNumber(number)

	for _, c := range d.contacts {
		contactNum := cleanNumber(c.Number)
		if contactNum == "" {
			continue
		}
		if strings.HasSuffix(clean, contactNum) || strings.HasSuffix(contactNum, clean) {
			return c.Name
		}
	}

	switch {
	case strings.HasPrefix(clean, "1") && len(clean) == 11:
		return fmt.Sprintf("+1 %s-%s-%s", clean[1:4], clean[4:7], clean[7:])
	case len(clean) == 10:
		return fmt.Sprintf("%s-%s-%s", clean[:3], clean[3:6], clean[6:])
	default:
		return clean
	}
}

func cleanNumber(number string) string {
	r := strings.NewReplacer("+", "", "-", "", " ", "")
	return r.Replace(number)
}
