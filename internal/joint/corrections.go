package joint

// CorrectionOffsets is the fixed per-joint rest bias of a source rig, in
// degrees. It is never user-editable and never persisted.
type CorrectionOffsets map[ID]Euler

// DefaultCorrections returns the offsets for the bundled rigged human.
// Its hips point backwards and the leg chain is authored upside down.
func DefaultCorrections() CorrectionOffsets {
	return CorrectionOffsets{
		Hips:         {X: 180},
		LeftUpLeg:    {X: 180, Y: 180},
		RightUpLeg:   {X: 180, Y: 180},
		LeftFoot:     {X: 60},
		RightFoot:    {X: 60},
		LeftToeBase:  {X: 30},
		RightToeBase: {X: 30},
	}
}

// Offset returns the correction for id, zero when absent.
func (c CorrectionOffsets) Offset(id ID) Euler {
	return c[id]
}
