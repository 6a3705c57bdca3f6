// Package translate formats the diagnostics and error messages of the
// simulator for the user's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

const (
	DEFAULT_LOCALE = "en-US" // Used when the host reports no locale.
)

var printer = newPrinter(hostLocales())

// hostLocales returns the preferred locales of the host, best first.
func hostLocales() (locales []string) {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("risc16: cannot determine locale, using %v: %v", DEFAULT_LOCALE, err)
	}

	return
}

// newPrinter selects the message catalog best matching locales.
func newPrinter(locales []string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{DEFAULT_LOCALE}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() style message for the host locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
