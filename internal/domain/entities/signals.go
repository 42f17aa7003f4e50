package entities

// FakeSignalWords are terms whose presence suggests sensationalist content.
var FakeSignalWords = []string{
	"breaking",
	"urgent",
	"shocking",
	"unbelievable",
	"secret",
	"exposed",
	"scandal",
}

// RealSignalWords are phrases whose presence suggests sourced reporting.
var RealSignalWords = []string{
	"according to",
	"research shows",
	"study finds",
	"experts say",
	"data indicates",
}
