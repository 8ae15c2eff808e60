package sensor

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// germanReplacer expands umlauts and sharp s before the generic
// transliteration pass, which would otherwise just strip the diaeresis
// ("ä" → "a" instead of "ae").
var germanReplacer = strings.NewReplacer(
	" ", "-",
	"ä", "ae", "Ä", "Ae",
	"ö", "oe", "Ö", "Oe",
	"ü", "ue", "Ü", "Ue",
	"ß", "ss",
)

// asciiFold decomposes to NFD and drops combining marks, turning accented
// letters into their base ASCII form.
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// CleanIdentifier turns a configured display name into a topic-safe internal
// identifier: trimmed, whitespace replaced by hyphens, umlauts expanded, and
// remaining characters transliterated to ASCII.
func CleanIdentifier(name string) string {
	clean := germanReplacer.Replace(strings.TrimSpace(name))
	if folded, _, err := transform.String(asciiFold, clean); err == nil {
		clean = folded
	}
	// Drop anything that survived folding outside the ASCII range.
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, clean)
}

// ParseIdentity builds an Identity from one configuration entry.
//
// The configured name may carry a location suffix separated by '@'
// ("Petunia@Balcony"). The MAC address is validated against the family's
// address pattern; a mismatch is a configuration error.
//
// Parameters:
//   - class: The device family the entry belongs to
//   - name: The configured display name, optionally "name@location"
//   - mac: The hardware address
//
// Returns:
//   - Identity: Parsed and validated identity
//   - error: ErrInvalidAddress if the MAC does not match the family pattern
func ParseIdentity(class Class, name, mac string) (Identity, error) {
	if !class.addressPattern().MatchString(mac) {
		return Identity{}, fmt.Errorf("%w: %q does not match the %s address pattern",
			ErrInvalidAddress, mac, class.DisplayName())
	}

	pretty, locationPretty := name, ""
	if i := strings.Index(name, "@"); i >= 0 {
		pretty, locationPretty = name[:i], name[i+1:]
	}

	return Identity{
		Name:           CleanIdentifier(pretty),
		Pretty:         pretty,
		Location:       CleanIdentifier(locationPretty),
		LocationPretty: locationPretty,
		MAC:            mac,
	}, nil
}
