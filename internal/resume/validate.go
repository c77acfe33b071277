package resume

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-builder/internal/types"
)

var validate = validator.New()

// Validate checks struct constraints plus the id and responsibility invariants.
// It returns a *ValidationError listing every problem found.
func Validate(doc *types.ResumeDocument) error {
	verr := &ValidationError{}

	if err := validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate resume document: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Namespace(), describeTag(fe))
		}
	}

	checkInvariants(doc, verr)
	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

// CheckInvariants checks only the id and responsibility invariants. Edits on a document
// that is still being filled in use it instead of Validate.
func CheckInvariants(doc *types.ResumeDocument) error {
	verr := &ValidationError{}
	checkInvariants(doc, verr)
	if len(verr.Errors) > 0 {
		return verr
	}
	return nil
}

func checkInvariants(doc *types.ResumeDocument, verr *ValidationError) {
	seen := make(map[string]bool, len(doc.WorkExperience))
	for i, entry := range doc.WorkExperience {
		field := fmt.Sprintf("work_experience[%d]", i)
		if entry.ID != "" {
			if seen[entry.ID] {
				verr.add(field+".id", fmt.Sprintf("duplicate id %q", entry.ID))
			}
			seen[entry.ID] = true
			if n := entrySeq(entry.ID); n > doc.IDSeq {
				verr.add(field+".id", fmt.Sprintf("id %q is ahead of id_seq %d", entry.ID, doc.IDSeq))
			}
		}

		for j, r := range entry.Responsibilities {
			rfield := fmt.Sprintf("%s.responsibilities[%d]", field, j)
			switch {
			case r.Mode == types.ModeEditing && r.PreviousText == nil:
				verr.add(rfield, "editing responsibility must keep its previous text")
			case r.Mode != types.ModeEditing && r.PreviousText != nil:
				verr.add(rfield, "previous text is only kept while editing")
			}
		}
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
