package types

import "fmt"

// Subject represents the academic subject a mistake belongs to
type Subject string

const (
	SubjectMath      Subject = "math"
	SubjectPhysics   Subject = "physics"
	SubjectChemistry Subject = "chemistry"
	SubjectBiology   Subject = "biology"
	SubjectChinese   Subject = "chinese"
	SubjectEnglish   Subject = "english"
	SubjectHistory   Subject = "history"
	SubjectGeography Subject = "geography"
	SubjectPolitics  Subject = "politics"
	SubjectOther     Subject = "other"
)

// AllSubjects returns all valid subjects
func AllSubjects() []Subject {
	return []Subject{
		SubjectMath,
		SubjectPhysics,
		SubjectChemistry,
		SubjectBiology,
		SubjectChinese,
		SubjectEnglish,
		SubjectHistory,
		SubjectGeography,
		SubjectPolitics,
		SubjectOther,
	}
}

// IsValid checks if the subject is valid
func (s Subject) IsValid() bool {
	for _, v := range AllSubjects() {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of the subject
func (s Subject) String() string {
	return string(s)
}

// ParseSubject parses a string into a Subject
func ParseSubject(s string) (Subject, error) {
	subject := Subject(s)
	if !subject.IsValid() {
		return "", fmt.Errorf("invalid subject: %s", s)
	}
	return subject, nil
}

// NormalizeSubject maps free-form model output to a known subject.
// Unknown values fall back to SubjectOther.
func NormalizeSubject(s string) Subject {
	if subject, err := ParseSubject(s); err == nil {
		return subject
	}
	switch s {
	case "Math", "Mathematics", "mathematics", "数学":
		return SubjectMath
	case "Physics", "物理":
		return SubjectPhysics
	case "Chemistry", "化学":
		return SubjectChemistry
	case "Biology", "生物":
		return SubjectBiology
	case "Chinese", "语文", "国語":
		return SubjectChinese
	case "English", "英语", "英語":
		return SubjectEnglish
	case "History", "历史", "歴史":
		return SubjectHistory
	case "Geography", "地理":
		return SubjectGeography
	case "Politics", "政治":
		return SubjectPolitics
	}
	return SubjectOther
}
