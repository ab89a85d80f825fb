package joint

// Definition is the immutable description of one joint.
type Definition struct {
	ID       ID
	Name     string
	Label    string
	BoneName string
	Parent   ID
	Limits   Limits
	// Rest is the default pose value; shoulders hold a T-pose bias.
	Rest Euler
}

func r(lo, hi float64) Range { return Range{lo, hi} }

var (
	armLimits  = Limits{r(-90, 90), r(-90, 90), r(-90, 90)}
	handLimits = Limits{r(-60, 60), r(-60, 60), r(-30, 30)}
	upLeg      = Limits{r(-120, 45), r(-60, 60), r(-45, 45)}
	leg        = Limits{r(-150, 0), r(-15, 15), r(-15, 15)}
	foot       = Limits{r(-45, 45), r(-30, 30), r(-30, 30)}
	toe        = Limits{r(-30, 30), r(0, 0), r(0, 0)}
	upperSpine = Limits{r(-20, 20), r(-20, 20), r(-15, 15)}
)

// Table order is depth-first from Hips, matching the bone selector.
var table = [Count]Definition{
	Hips:          {Label: "Hips", Parent: Unknown, Limits: Limits{r(-15, 15), r(-45, 45), r(-15, 15)}},
	Spine:         {Label: "Spine", Parent: Hips, Limits: Limits{r(-30, 30), r(-30, 30), r(-20, 20)}},
	Spine1:        {Label: "Spine 1", Parent: Spine, Limits: upperSpine},
	Spine2:        {Label: "Spine 2", Parent: Spine1, Limits: upperSpine},
	Neck:          {Label: "Neck", Parent: Spine2, Limits: Limits{r(-30, 30), r(-45, 45), r(-20, 20)}},
	Head:          {Label: "Head", Parent: Neck, Limits: Limits{r(-40, 40), r(-70, 70), r(-25, 25)}},
	LeftShoulder:  {Label: "L Shoulder", Parent: Spine2, Limits: Limits{r(45, 135), r(-45, 45), r(-135, -45)}, Rest: Euler{90, 0, -90}},
	LeftArm:       {Label: "L Arm", Parent: LeftShoulder, Limits: armLimits},
	LeftForeArm:   {Label: "L Forearm", Parent: LeftArm, Limits: Limits{r(-30, 30), r(-90, 90), r(0, 145)}},
	LeftHand:      {Label: "L Hand", Parent: LeftForeArm, Limits: handLimits},
	RightShoulder: {Label: "R Shoulder", Parent: Spine2, Limits: Limits{r(45, 135), r(-45, 45), r(45, 135)}, Rest: Euler{90, 0, 90}},
	RightArm:      {Label: "R Arm", Parent: RightShoulder, Limits: armLimits},
	RightForeArm:  {Label: "R Forearm", Parent: RightArm, Limits: Limits{r(-30, 30), r(-90, 90), r(-145, 0)}},
	RightHand:     {Label: "R Hand", Parent: RightForeArm, Limits: handLimits},
	LeftUpLeg:     {Label: "L Thigh", Parent: Hips, Limits: upLeg},
	LeftLeg:       {Label: "L Shin", Parent: LeftUpLeg, Limits: leg},
	LeftFoot:      {Label: "L Foot", Parent: LeftLeg, Limits: foot},
	LeftToeBase:   {Label: "L Toe", Parent: LeftFoot, Limits: toe},
	RightUpLeg:    {Label: "R Thigh", Parent: Hips, Limits: upLeg},
	RightLeg:      {Label: "R Shin", Parent: RightUpLeg, Limits: leg},
	RightFoot:     {Label: "R Foot", Parent: RightLeg, Limits: foot},
	RightToeBase:  {Label: "R Toe", Parent: RightFoot, Limits: toe},
}

var children [Count][]ID

func init() {
	for i := range table {
		id := ID(i)
		table[i].ID = id
		table[i].Name = names[i]
		table[i].BoneName = id.BoneName()
		if p := table[i].Parent; p.Valid() {
			children[p] = append(children[p], id)
		}
	}
}

// Def returns the definition of id. ok is false for Unknown.
func Def(id ID) (Definition, bool) {
	if !id.Valid() {
		return Definition{}, false
	}
	return table[id], true
}

// Lookup resolves name with Parse and returns its definition.
func Lookup(name string) (Definition, bool) {
	return Def(Parse(name))
}

// LimitsFor returns the per-axis limits of id.
func LimitsFor(id ID) (Limits, bool) {
	d, ok := Def(id)
	return d.Limits, ok
}

// RestOf returns the default pose value of id, zero for Unknown.
func RestOf(id ID) Euler {
	d, _ := Def(id)
	return d.Rest
}

// ChildrenOf returns the ordered children of id. The slice must not be modified.
func ChildrenOf(id ID) []ID {
	if !id.Valid() {
		return nil
	}
	return children[id]
}

// Roots returns the joints without a parent.
func Roots() []ID {
	var out []ID
	for _, d := range table {
		if !d.Parent.Valid() {
			out = append(out, d.ID)
		}
	}
	return out
}

// Walk visits every joint depth-first from the roots, children in order.
// depth is 0 for roots.
func Walk(fn func(id ID, depth int)) {
	var visit func(ID, int)
	visit = func(id ID, depth int) {
		fn(id, depth)
		for _, c := range children[id] {
			visit(c, depth+1)
		}
	}
	for _, root := range Roots() {
		visit(root, 0)
	}
}

// All returns every definition in ID order.
func All() []Definition {
	out := make([]Definition, Count)
	copy(out, table[:])
	return out
}
