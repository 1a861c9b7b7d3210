package sanitizer

import (
	"strings"

	"roomly/pkg/model"

	"github.com/nyaruka/phonenumbers"
)

var DefaultRegions = []string{"TH"}

// PhoneNormalizer converts phone numbers to E.164. Numbers without a
// country code are read as national numbers of each region in turn.
type PhoneNormalizer struct {
	regions []string
}

func NewPhoneNormalizer(regions ...string) *PhoneNormalizer {
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	upper := make([]string, 0, len(regions))
	for _, r := range regions {
		upper = append(upper, strings.ToUpper(strings.TrimSpace(r)))
	}
	return &PhoneNormalizer{regions: upper}
}

// Normalize returns the E.164 form, or "" when no region can parse it.
func (n *PhoneNormalizer) Normalize(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range n.regions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}

func NormalizePhone(phone string) string {
	return NewPhoneNormalizer().Normalize(phone)
}

func (n *PhoneNormalizer) SanitizeUser(u *model.User) {
	u.Name = NormalizeName(u.Name)
	u.IDNumber = NormalizeIDNumber(u.IDNumber)
	u.Phone = n.Normalize(u.Phone)
	u.Position = TrimAndNormalize(u.Position)
	u.Role = NormalizeRole(u.Role)
}

func (n *PhoneNormalizer) SanitizeUserUpdate(u *model.UserUpdate) {
	u.Name = NormalizeOptional(u.Name, NormalizeName)
	u.IDNumber = NormalizeOptional(u.IDNumber, NormalizeIDNumber)
	u.Phone = NormalizeOptional(u.Phone, n.Normalize)
	u.Position = NormalizeOptional(u.Position, TrimAndNormalize)
	u.Role = NormalizeOptional(u.Role, NormalizeRole)
}

func (n *PhoneNormalizer) SanitizeLogin(req *model.LoginRequest) {
	req.IDNumber = NormalizeIDNumber(req.IDNumber)
	req.Phone = n.Normalize(req.Phone)
}
