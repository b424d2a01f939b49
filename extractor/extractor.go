// Package extractor recovers a phone number and a one-time code from the
// payload attached to a number record. A payload is either a zip archive or
// a raw text blob. Extraction is best-effort: every function reports
// "not found" instead of failing.
package extractor

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klauspost/compress/zip"
	log "github.com/sirupsen/logrus"
	textunicode "golang.org/x/text/encoding/unicode"
)

const (
	// PhoneReadLimit is how many bytes of each archive entry are scanned for a phone number.
	PhoneReadLimit = 2000
	// CodeReadLimit is how many bytes of each archive entry are scanned for a one-time code.
	CodeReadLimit = 4000

	// entries with shorter names are scanned regardless of extension
	shortNameLimit = 50
)

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{10,15}`),
		regexp.MustCompile(`\d{3}[-\s]\d{3}[-\s]\d{4}`),
	}

	textExtensions = []string{".txt", ".csv", ".json", ".log", ".data"}
)

// ExtractPhoneNumber returns the first phone-number-like string found in payload.
func ExtractPhoneNumber(payload []byte) (phone string, found bool) {
	defer recoverAsNotFound("phone", &phone, &found)

	archive, err := openArchive(payload)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return matchPhone(decode(payload))
		}
		log.WithError(err).Debug("Payload could not be opened for phone extraction")
		return "", false
	}

	for _, entry := range archive.File {
		if !isPhoneCandidate(entry) {
			continue
		}
		content, err := readEntry(entry, PhoneReadLimit)
		if err != nil {
			continue
		}
		if phone, ok := matchPhone(decode(content)); ok {
			return phone, true
		}
	}

	for _, entry := range archive.File {
		if phone, ok := matchPhone(entry.Name); ok {
			return phone, true
		}
	}

	return "", false
}

// ExtractOneTimeCode returns the first standalone run of 4 to 6 digits found in payload.
// Every archive entry is scanned in listing order.
func ExtractOneTimeCode(payload []byte) (code string, found bool) {
	defer recoverAsNotFound("code", &code, &found)

	archive, err := openArchive(payload)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return matchCode(decode(payload))
		}
		log.WithError(err).Debug("Payload could not be opened for code extraction")
		return "", false
	}

	for _, entry := range archive.File {
		content, err := readEntry(entry, CodeReadLimit)
		if err != nil {
			continue
		}
		if code, ok := matchCode(decode(content)); ok {
			return code, true
		}
	}

	return "", false
}

// IsArchive reports whether payload opens as a zip archive.
func IsArchive(payload []byte) bool {
	_, err := openArchive(payload)
	return err == nil
}

func openArchive(payload []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
}

func isPhoneCandidate(entry *zip.File) bool {
	if entry.FileInfo().IsDir() {
		return false
	}
	for _, ext := range textExtensions {
		if strings.HasSuffix(entry.Name, ext) {
			return true
		}
	}
	return utf8.RuneCountInString(entry.Name) < shortNameLimit
}

func readEntry(entry *zip.File, limit int64) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(io.LimitReader(rc, limit))
}

// decode converts raw bytes to text, replacing invalid UTF-8 sequences with U+FFFD.
func decode(raw []byte) string {
	text, err := textunicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(text)
}

func matchPhone(text string) (string, bool) {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(text); match != "" {
			return match, true
		}
	}
	return "", false
}

// matchCode returns the first word made of four to six decimal digits. Words are runs of
// Unicode letters, numbers and underscores, so "код12345" holds no code.
func matchCode(text string) (string, bool) {
	for _, word := range strings.FieldsFunc(text, isNotWordRune) {
		if n := utf8.RuneCountInString(word); n >= 4 && n <= 6 && allDigits(word) {
			return word, true
		}
	}
	return "", false
}

func isNotWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
}

func allDigits(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func recoverAsNotFound(kind string, value *string, found *bool) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"kind":  kind,
			"panic": r,
		}).Error("Extraction panicked")
		*value = ""
		*found = false
	}
}
