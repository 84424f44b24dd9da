package models

import "time"

// Book is a bibliographic record. Copies reference it by ID.
type Book struct {
	ID              string
	Title           string
	Author          string
	ISBN            string // optional, unique when set
	Genre           string
	PublicationYear int
	Description     string
	CreatedAt       time.Time
}

// CopyStatus is the circulation state of a physical copy.
type CopyStatus string

const (
	CopyAvailable   CopyStatus = "available"
	CopyBorrowed    CopyStatus = "borrowed"
	CopyMaintenance CopyStatus = "maintenance"
)

// Valid reports whether s is a known copy status.
func (s CopyStatus) Valid() bool {
	switch s {
	case CopyAvailable, CopyBorrowed, CopyMaintenance:
		return true
	}
	return false
}

// copyTransitions lists every allowed copy status change. The borrowed
// edges are driven by circulation; the rest are administrative.
var copyTransitions = map[CopyStatus][]CopyStatus{
	CopyAvailable:   {CopyBorrowed, CopyMaintenance},
	CopyBorrowed:    {CopyAvailable, CopyMaintenance},
	CopyMaintenance: {CopyAvailable},
}

// CanTransition reports whether a copy may move from s to next.
func (s CopyStatus) CanTransition(next CopyStatus) bool {
	for _, allowed := range copyTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CopyCondition describes the physical state of a copy.
type CopyCondition string

const (
	ConditionExcellent CopyCondition = "excellent"
	ConditionGood      CopyCondition = "good"
	ConditionFair      CopyCondition = "fair"
	ConditionPoor      CopyCondition = "poor"
)

// Valid reports whether c is a known condition.
func (c CopyCondition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// BookCopy is one physical instance of a Book.
type BookCopy struct {
	ID         string
	BookID     string
	CopyNumber int // sequential per book, starting at 1
	Status     CopyStatus
	Condition  CopyCondition
	CreatedAt  time.Time
}
