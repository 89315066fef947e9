package model

import "strings"

// Position is a closed set of role labels a user may declare on their profile.
// The zero value "" means "not set". Stored values are always one of the
// canonical lowercase labels below.
type Position string

const (
	PositionBackend   Position = "backend"
	PositionFrontend  Position = "frontend"
	PositionFullstack Position = "fullstack"
	PositionMobile    Position = "mobile"
	PositionDevOps    Position = "devops"
	PositionData      Position = "data"
	PositionDesigner  Position = "designer"
)

// CareerLevel is a closed set of experience labels.
type CareerLevel string

const (
	CareerStudent CareerLevel = "student"
	CareerJunior  CareerLevel = "junior"
	CareerMid     CareerLevel = "mid"
	CareerSenior  CareerLevel = "senior"
	CareerLead    CareerLevel = "lead"
)

var positions = map[string]Position{
	string(PositionBackend):   PositionBackend,
	string(PositionFrontend):  PositionFrontend,
	string(PositionFullstack): PositionFullstack,
	string(PositionMobile):    PositionMobile,
	string(PositionDevOps):    PositionDevOps,
	string(PositionData):      PositionData,
	string(PositionDesigner):  PositionDesigner,
}

var careerLevels = map[string]CareerLevel{
	string(CareerStudent): CareerStudent,
	string(CareerJunior):  CareerJunior,
	string(CareerMid):     CareerMid,
	string(CareerSenior):  CareerSenior,
	string(CareerLead):    CareerLead,
}

// ParsePosition resolves a label to its canonical Position. The lookup is
// case-insensitive; the second return value is false for unknown labels.
func ParsePosition(label string) (Position, bool) {
	p, ok := positions[strings.ToLower(strings.TrimSpace(label))]
	return p, ok
}

// ParseCareerLevel resolves a label to its canonical CareerLevel,
// case-insensitively.
func ParseCareerLevel(label string) (CareerLevel, bool) {
	c, ok := careerLevels[strings.ToLower(strings.TrimSpace(label))]
	return c, ok
}
