package buildmap

import (
	"encoding/json"
	"io"
)

// Fixed encoded sizes of the primitive geometry records.
const (
	Point2DSize    = 8
	Point3DSize    = 12
	Velocity3DSize = 6
)

// Point2D is a wall vertex in map units.
type Point2D struct {
	X, Y int32
}

// Point3D is a position in map units. Z grows downwards and uses a finer scale than X and Y.
type Point3D struct {
	X, Y, Z int32
}

// Velocity3D is the motion vector of a sprite.
type Velocity3D struct {
	X, Y, Z int16
}

type binPoint2D struct {
	X, Y int32
}

type binPoint3D struct {
	X, Y, Z int32
}

type binVelocity struct {
	X, Y, Z int16
}

func (p Point2D) bin() binPoint2D     { return binPoint2D(p) }
func (p Point3D) bin() binPoint3D     { return binPoint3D(p) }
func (v Velocity3D) bin() binVelocity { return binVelocity(v) }

// ReadPoint2D reads an X, Y pair.
func ReadPoint2D(r io.Reader) (Point2D, error) {
	var b binPoint2D
	if err := readLE(r, &b); err != nil {
		return Point2D{}, err
	}
	return Point2D(b), nil
}

// Encode writes the point in its 8 byte form.
func (p Point2D) Encode(w io.Writer) error {
	return writeLE(w, p.bin())
}

// ReadPoint3D reads an X, Y, Z triple.
func ReadPoint3D(r io.Reader) (Point3D, error) {
	var b binPoint3D
	if err := readLE(r, &b); err != nil {
		return Point3D{}, err
	}
	return Point3D(b), nil
}

// Encode writes the point in its 12 byte form.
func (p Point3D) Encode(w io.Writer) error {
	return writeLE(w, p.bin())
}

// ReadVelocity3D reads an X, Y, Z velocity triple.
func ReadVelocity3D(r io.Reader) (Velocity3D, error) {
	var b binVelocity
	if err := readLE(r, &b); err != nil {
		return Velocity3D{}, err
	}
	return Velocity3D(b), nil
}

// Encode writes the velocity in its 6 byte form.
func (v Velocity3D) Encode(w io.Writer) error {
	return writeLE(w, v.bin())
}

type jsonPoint2D struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type jsonPoint3D struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
	Z int32 `json:"z"`
}

type jsonVelocity struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

func (p Point2D) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPoint2D(p))
}

func (p *Point2D) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("point", data)
	if err != nil {
		return err
	}
	point, err := parsePoint2D(o)
	if err != nil {
		return err
	}
	*p = point
	return nil
}

func parsePoint2D(o *jsonObject) (Point2D, error) {
	var p Point2D
	var err error
	if p.X, err = jsonInteger[int32](o, "x"); err != nil {
		return Point2D{}, err
	}
	if p.Y, err = jsonInteger[int32](o, "y"); err != nil {
		return Point2D{}, err
	}
	return p, o.close()
}

func (p Point3D) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonPoint3D(p))
}

func (p *Point3D) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("point", data)
	if err != nil {
		return err
	}
	point, err := parsePoint3D(o)
	if err != nil {
		return err
	}
	*p = point
	return nil
}

func parsePoint3D(o *jsonObject) (Point3D, error) {
	var p Point3D
	var err error
	if p.X, err = jsonInteger[int32](o, "x"); err != nil {
		return Point3D{}, err
	}
	if p.Y, err = jsonInteger[int32](o, "y"); err != nil {
		return Point3D{}, err
	}
	if p.Z, err = jsonInteger[int32](o, "z"); err != nil {
		return Point3D{}, err
	}
	return p, o.close()
}

func (v Velocity3D) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVelocity(v))
}

func (v *Velocity3D) UnmarshalJSON(data []byte) error {
	o, err := newJSONObject("velocity", data)
	if err != nil {
		return err
	}
	velocity, err := parseVelocity3D(o)
	if err != nil {
		return err
	}
	*v = velocity
	return nil
}

func parseVelocity3D(o *jsonObject) (Velocity3D, error) {
	var v Velocity3D
	var err error
	if v.X, err = jsonInteger[int16](o, "x"); err != nil {
		return Velocity3D{}, err
	}
	if v.Y, err = jsonInteger[int16](o, "y"); err != nil {
		return Velocity3D{}, err
	}
	if v.Z, err = jsonInteger[int16](o, "z"); err != nil {
		return Velocity3D{}, err
	}
	return v, o.close()
}
