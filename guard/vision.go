package guard

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/harvest/common"
)

// VisionSensor casts a fan of rays from the guard each tick and integrates
// the alert length while the player stays in sight.
type VisionSensor struct {
	collider Collider

	angle       float64
	length      float64
	rays        int
	rotateSpeed float64
	growRate    float64
	decayRate   float64

	facing        float64
	alertLength   float64
	inVision      bool
	inAlertVision bool

	baseEnds  []cp.Vector
	alertEnds []cp.Vector
}

func NewVisionSensor(collider Collider, cfg Config, facing float64) *VisionSensor {
	return &VisionSensor{
		collider:    collider,
		angle:       cfg.visionAngleRad(),
		length:      cfg.VisionLength,
		rays:        cfg.RayCount,
		rotateSpeed: cfg.rotateSpeedRad(),
		growRate:    cfg.AlertGrowthRate,
		decayRate:   cfg.AlertDecayRate,
		facing:      common.WrapAngle(facing),
		baseEnds:    make([]cp.Vector, cfg.RayCount),
		alertEnds:   make([]cp.Vector, cfg.RayCount),
	}
}

// Turn rotates the facing toward targetRot, capped by the rotate speed.
func (v *VisionSensor) Turn(targetRot, dt float64) {
	if v == nil {
		return
	}
	v.facing = common.MoveTowardsAngle(v.facing, targetRot, v.rotateSpeed*dt)
}

// Update turns toward targetRot, casts the fan from pos and integrates the
// alert length. Rays see the alert length from before this tick's change.
func (v *VisionSensor) Update(pos cp.Vector, targetRot, dt float64) {
	if v == nil || v.collider == nil {
		return
	}
	v.Turn(targetRot, dt)

	v.inVision = false
	v.inAlertVision = false

	step := v.angle / float64(v.rays)
	center := float64(v.rays-1) / 2
	for i := 0; i < v.rays; i++ {
		rad := v.facing + (float64(i)-center)*step
		dir := cp.ForAngle(rad)

		dist := v.length
		if hit, ok := v.collider.RayCast(pos, dir, v.length, LayerAll); ok {
			dist = hit.Distance
			if hit.Layer&LayerPlayer != 0 {
				v.inVision = true
				if hit.Distance < v.alertLength {
					v.inAlertVision = true
				}
				dist = v.length
				if wall, ok := v.collider.RayCast(pos, dir, v.length, LayerWalls); ok {
					dist = wall.Distance
				}
			}
		}

		v.baseEnds[i] = pos.Add(dir.Mult(dist))
		v.alertEnds[i] = pos.Add(dir.Mult(min(dist, v.alertLength)))
	}

	if v.inVision {
		v.alertLength = common.Clamp(v.alertLength+v.growRate*dt, 0, v.length)
	} else {
		v.alertLength = max(0, v.alertLength-v.decayRate*dt)
	}
}

func (v *VisionSensor) Facing() float64 { return v.facing }

func (v *VisionSensor) AlertLength() float64 { return v.alertLength }

func (v *VisionSensor) PlayerInVision() bool { return v.inVision }

// PlayerInAlertVision implies PlayerInVision.
func (v *VisionSensor) PlayerInAlertVision() bool { return v.inAlertVision }

// Endpoints returns copies of the base and alert cone boundaries from the
// last Update, one point per ray.
func (v *VisionSensor) Endpoints() (base, alert []cp.Vector) {
	base = append([]cp.Vector(nil), v.baseEnds...)
	alert = append([]cp.Vector(nil), v.alertEnds...)
	return base, alert
}
