package models

// LearningStatus is the stage of an item in the four-step progression
type LearningStatus string

const (
	StatusNew      LearningStatus = "new"
	StatusLearning LearningStatus = "learning"
	StatusReview   LearningStatus = "review"
	StatusMastered LearningStatus = "mastered"
)

func (s LearningStatus) String() string { return string(s) }

// IsValid reports whether s is one of the four known stages
func (s LearningStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusReview, StatusMastered:
		return true
	}
	return false
}

// Rank returns the position of s in the progression, or -1 for unknown values
func (s LearningStatus) Rank() int {
	switch s {
	case StatusNew:
		return 0
	case StatusLearning:
		return 1
	case StatusReview:
		return 2
	case StatusMastered:
		return 3
	}
	return -1
}

// Label is the short badge shown next to a word in lists
func (s LearningStatus) Label() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusLearning:
		return "ING"
	case StatusReview, StatusMastered:
		return "DONE"
	}
	return "?"
}
