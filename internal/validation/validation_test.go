package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
)

type signup struct {
	Username string   `json:"username" validate:"required,username"`
	Email    string   `json:"email" validate:"required,mailaddr"`
	Password string   `json:"password" validate:"required,password"`
	Tags     []string `json:"tags" validate:"max=2,dive,min=2"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Username: "al", Email: "nope", Password: "12345", Tags: []string{"ok", "x"}})

	var fields Errors
	if !errors.As(err, &fields) {
		t.Fatalf("expected Errors, got %T %v", err, err)
	}
	for _, key := range []string{"username", "email", "password", "tags[1]"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected error for %q, got %v", key, fields)
		}
	}
	if fields["tags[1]"] != "must be at least 2 characters" {
		t.Fatalf("unexpected message %q", fields["tags[1]"])
	}
	if !strings.HasPrefix(err.Error(), "validation failed: email:") {
		t.Fatalf("expected sorted summary, got %q", err.Error())
	}
}

func TestStructAcceptsValidInput(t *testing.T) {
	err := Struct(signup{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	cases := map[string]bool{
		"al":                    false,
		"alice":                 true,
		"al ice":                false,
		"zo\u00eb":              true,
		strings.Repeat("a", 33): false,
	}
	for name, ok := range cases {
		err := ValidateUsername(name)
		if (err == nil) != ok {
			t.Fatalf("ValidateUsername(%q) = %v, want ok=%v", name, err, ok)
		}
	}
}

func TestNormalizeUsernameComposes(t *testing.T) {
	decomposed := "zoe\u0308"
	if NormalizeUsername("  "+decomposed+" ") != "zo\u00eb" {
		t.Fatalf("expected NFC composed form")
	}
}

func TestValidateEmail(t *testing.T) {
	if ValidateEmail("alice@example.com") != nil {
		t.Fatalf("expected plain address to be valid")
	}
	for _, bad := range []string{"", "alice", "Alice <alice@example.com>"} {
		if ValidateEmail(bad) == nil {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
	if NormalizeEmail(" Alice@Example.COM ") != "alice@example.com" {
		t.Fatalf("expected lowercased trimmed email")
	}
}

func TestValidatePassword(t *testing.T) {
	if ValidatePassword("12345") == nil {
		t.Fatalf("expected short password to fail")
	}
	if ValidatePassword("123456") != nil {
		t.Fatalf("expected 6 characters to pass")
	}
	if ValidatePassword(strings.Repeat("x", 73)) == nil {
		t.Fatalf("expected over-long password to fail")
	}
}

func multipartFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write(content)
	_ = writer.Close()

	req := httptest.NewRequest("PUT", "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	file, header, err := req.FormFile("photo")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestValidateFileAcceptsPNG(t *testing.T) {
	file, header := multipartFile(t, "me.png", pngHeader)

	contentType, err := ValidateFile(header, file, ImageConstraints)
	if err != nil {
		t.Fatalf("expected png to pass: %v", err)
	}
	if contentType != "image/png" {
		t.Fatalf("unexpected content type %q", contentType)
	}
}

func TestValidateFileRejectsDisguisedText(t *testing.T) {
	file, header := multipartFile(t, "me.png", []byte("just some text"))

	_, err := ValidateFile(header, file, ImageConstraints)
	if err == nil {
		t.Fatalf("expected text disguised as png to fail")
	}
}

func TestValidateFileRejectsWrongExtension(t *testing.T) {
	file, header := multipartFile(t, "me.gif", pngHeader)

	_, err := ValidateFile(header, file, ImageConstraints)
	if err == nil {
		t.Fatalf("expected .gif extension to fail")
	}
}
