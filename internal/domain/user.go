package domain

// User is a named owner of an exercise log.
// ID is the hex form of the storage-assigned identifier.
type User struct {
	ID        string
	Username  string
	Exercises []Exercise
}
