package model

// Path represents a file system path.
type Path string

// PlanFile is a decoded plan together with the file it was read from.
type PlanFile struct {
	Path Path
	Plan Plan
}
