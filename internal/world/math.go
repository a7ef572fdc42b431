package world

import "math"

type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vector3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Distance is the euclidean distance between two points.
func Distance(a, b Vector3) float32 {
	return a.Sub(b).Length()
}

func VectorFromArray(a [3]float32) Vector3 { return Vector3{a[0], a[1], a[2]} }

type Quaternion struct {
	X, Y, Z, W float32
}

var IdentityRotation = Quaternion{W: 1}

func QuaternionFromArray(a [4]float32) Quaternion { return Quaternion{a[0], a[1], a[2], a[3]} }
