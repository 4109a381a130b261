package schema

import "strconv"

// SupportedGenders is the fixed set of genders a demographic key may carry,
// in the order reports list them.
var SupportedGenders = []Gender{Male, Female, Undifferentiated, Undefined}

// SupportedAgeRanges is the fixed set of age buckets, in report order.
// The last bucket is open-ended.
var SupportedAgeRanges = []AgeRange{
	{Lower: 0, Upper: intPtr(9)},
	{Lower: 10, Upper: intPtr(19)},
	{Lower: 20, Upper: intPtr(29)},
	{Lower: 30, Upper: intPtr(39)},
	{Lower: 40, Upper: intPtr(49)},
	{Lower: 50, Upper: intPtr(59)},
	{Lower: 60, Upper: intPtr(69)},
	{Lower: 70, Upper: intPtr(79)},
	{Lower: 80, Upper: intPtr(89)},
	{Lower: 90, Upper: nil},
}

var supportedGenderSet = func() map[Gender]struct{} {
	m := make(map[Gender]struct{}, len(SupportedGenders))
	for _, g := range SupportedGenders {
		m[g] = struct{}{}
	}
	return m
}()

// IsSupportedGender reports whether g belongs to SupportedGenders.
func IsSupportedGender(g Gender) bool {
	_, ok := supportedGenderSet[g]
	return ok
}

// AgeRange is an inclusive age bucket. Upper is nil for the open-ended top bucket.
type AgeRange struct {
	Lower int
	Upper *int
}

// Label renders the bucket as "<lower>-<upper>" or "<lower>+".
func (r AgeRange) Label() string {
	if r.Upper == nil {
		return strconv.Itoa(r.Lower) + "+"
	}
	return strconv.Itoa(r.Lower) + "-" + strconv.Itoa(*r.Upper)
}

func intPtr(v int) *int { return &v }
