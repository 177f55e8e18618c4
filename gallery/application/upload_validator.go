package application

import (
	"errors"
	"mime"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/dfryer1193/gogallery/gallery/domain"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxFileSize is the exclusive upper bound of an upload in bytes.
	MaxFileSize = 10_000_000
	TitleMinLen = 3
	TitleMaxLen = 50
	// DescriptionMaxLen is inclusive.
	DescriptionMaxLen = 65
)

// Field names used in validation results.
const (
	FieldFile        = "file"
	FieldTitle       = "title"
	FieldDescription = "description"
)

// AcceptedImageTypes lists the MIME types an upload may have.
var AcceptedImageTypes = []string{"image/jpeg", "image/gif", "image/png"}

// Rule is one row of the upload rule table. Tag is the validator tag that
// enforces the rule; the UI binds fields and messages from this table.
type Rule struct {
	Field   string
	Tag     string
	Message string
}

// Rules is the upload rule table, in evaluation order per field.
var Rules = []Rule{
	{Field: FieldFile, Tag: "required", Message: "Please select an image"},
	{Field: FieldFile, Tag: "lt", Message: "File size must be less than 10MB"},
	{Field: FieldFile, Tag: "oneof", Message: "File must be an image"},
	{Field: FieldTitle, Tag: "required", Message: "Please enter a title"},
	{Field: FieldTitle, Tag: "min", Message: "Title must be at least 3 characters"},
	{Field: FieldTitle, Tag: "max", Message: "Title must be less than 50 characters"},
	{Field: FieldDescription, Tag: "required", Message: "Please enter a description"},
	{Field: FieldDescription, Tag: "max", Message: "Description must be less than 65 characters"},
}

// uploadForm is the flattened draft the rule table is checked against.
// The three File* fields all report under FieldFile.
type uploadForm struct {
	FilePresent bool   `validate:"required" field:"file"`
	FileSize    int64  `validate:"lt=10000000" field:"file"`
	FileType    string `validate:"oneof=image/jpeg image/gif image/png" field:"file"`
	Title       string `validate:"required,min=3,max=50" field:"title"`
	Description string `validate:"required,max=65" field:"description"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return sf.Tag.Get("field")
	})
	return v
}

// ValidDraft is a draft that passed Validate. The zero value is not valid.
type ValidDraft struct {
	draft    domain.UploadDraft
	verified bool
}

// Draft returns the normalized draft.
func (d ValidDraft) Draft() domain.UploadDraft {
	return d.draft
}

// ValidationResult is either a valid draft or the set of violated fields.
type ValidationResult struct {
	valid  ValidDraft
	Errors map[string]string
}

// Valid reports whether every rule passed.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0 && r.valid.verified
}

// Draft returns the validated draft; it is only usable when Valid is true.
func (r ValidationResult) Draft() ValidDraft {
	return r.valid
}

// Err returns a *domain.ValidationError for an invalid result, or nil.
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &domain.ValidationError{Fields: r.Errors}
}

// Validate checks a draft against Rules and reports every violated field at
// once, with the first failing rule's message for each field.
func Validate(draft domain.UploadDraft) ValidationResult {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)

	form := uploadForm{
		FilePresent: !draft.File.Empty(),
		FileSize:    draft.File.Size(),
		FileType:    fileType(draft.File),
		Title:       draft.Title,
		Description: draft.Description,
	}

	fieldErrors := map[string]string{}
	err := formValidator.Struct(form)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := fe.Field()
			if _, reported := fieldErrors[field]; reported {
				continue
			}
			fieldErrors[field] = ruleMessage(field, fe.Tag())
		}
	} else if err != nil {
		fieldErrors[FieldFile] = err.Error()
	}

	if len(fieldErrors) > 0 {
		return ValidationResult{Errors: fieldErrors}
	}
	return ValidationResult{valid: ValidDraft{draft: draft, verified: true}}
}

// fileType returns the MIME type of the file. An image content type wins;
// a missing or generic one such as application/octet-stream falls back to
// the file extension.
func fileType(f domain.File) string {
	mediaType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	if strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}

	if byExt := typeByExtension(f.Name); byExt != "" {
		return byExt
	}
	return mediaType
}

func typeByExtension(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".png":
		return "image/png"
	}
	return mime.TypeByExtension(filepath.Ext(name))
}

func ruleMessage(field, tag string) string {
	for _, r := range Rules {
		if r.Field == field && r.Tag == tag {
			return r.Message
		}
	}
	return "Invalid " + field
}
