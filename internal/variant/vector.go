package variant

// Vector2 is a two-component geometric value.
type Vector2 struct {
	X, Y float64
}

// Vector3 is a three-component geometric value.
type Vector3 struct {
	X, Y, Z float64
}
