package graph

import "errors"

var (
	// ErrNilEntity is returned when a required entity argument is nil.
	ErrNilEntity = errors.New("graph: nil entity")

	// ErrSelfReference is returned when an elephant would become its own parent.
	ErrSelfReference = errors.New("graph: elephant cannot be its own parent")

	// ErrForeignEntity is returned when an entity was not allocated by the
	// arena it is used with, or has already been reclaimed.
	ErrForeignEntity = errors.New("graph: entity does not belong to this arena")

	// ErrInvalidEventType is returned by [Arena.NewEvent] for unknown types.
	ErrInvalidEventType = errors.New("graph: invalid event type")

	// ErrInvalidCapacity is returned by [Arena.NewWaterSource] for unknown capacities.
	ErrInvalidCapacity = errors.New("graph: invalid water source capacity")
)
