package robot

import "math"

// Inertia is a symmetric inertia tensor.
type Inertia struct {
	Ixx, Ixy, Ixz float64
	Iyy, Iyz      float64
	Izz           float64
}

func (i Inertia) Scale(k float64) Inertia {
	return Inertia{
		Ixx: i.Ixx * k, Ixy: i.Ixy * k, Ixz: i.Ixz * k,
		Iyy: i.Iyy * k, Iyz: i.Iyz * k,
		Izz: i.Izz * k,
	}
}

// UnitInertia is the inertia tensor of the shape at unit mass about its
// center, with the long axis along Z.
func (g Geometry) UnitInertia() Inertia {
	switch g.Type {
	case Box:
		x, y, z := g.Width, g.Length, g.Depth
		return Inertia{
			Ixx: (y*y + z*z) / 12,
			Iyy: (x*x + z*z) / 12,
			Izz: (x*x + y*y) / 12,
		}
	case Cylinder, Capsule:
		r, h := g.Radius, g.Length
		ixx := (3*r*r + h*h) / 12
		return Inertia{Ixx: ixx, Iyy: ixx, Izz: r * r / 2}
	case Sphere:
		i := 2 * g.Radius * g.Radius / 5
		return Inertia{Ixx: i, Iyy: i, Izz: i}
	}
	return Inertia{}
}

func (l Link) Inertia() Inertia {
	return l.Geometry.UnitInertia().Scale(l.Mass)
}

// Origin is the attachment point in the base frame.
func (a Attachment) Origin() (x, y, z float64) {
	return a.Radius * math.Cos(a.Angle), a.Radius * math.Sin(a.Angle), a.ZOffset
}
