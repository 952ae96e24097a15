// AngelaMos | 2026
// form.go

package checkout

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/buildmc/storefront/internal/core"
)

// Form is what a buyer submits. Field names follow the storefront client.
type Form struct {
	CustomerRealName string `json:"customerRealName"`
	MinecraftName    string `json:"minecraftName"`
	CustomerPhone    string `json:"customerPhone"`
	CustomerEmail    string `json:"customerEmail"`
	PaymentMethod    string `json:"paymentMethod"`
}

func (f Form) Normalized() Form {
	return Form{
		CustomerRealName: strings.TrimSpace(f.CustomerRealName),
		MinecraftName:    strings.TrimSpace(f.MinecraftName),
		CustomerPhone:    strings.TrimSpace(f.CustomerPhone),
		CustomerEmail:    strings.TrimSpace(f.CustomerEmail),
		PaymentMethod:    strings.TrimSpace(f.PaymentMethod),
	}
}

var emailValidator = core.NewValidator()

// Validate reports every failing field, keyed by its json name. An empty
// result means the form may be submitted.
func (f Form) Validate(methods []string) map[string]string {
	n := f.Normalized()
	fields := make(map[string]string)

	if utf8.RuneCountInString(n.CustomerRealName) < 2 {
		fields["customerRealName"] = "Name must be at least 2 characters"
	}
	if utf8.RuneCountInString(n.MinecraftName) < 2 {
		fields["minecraftName"] = "Minecraft name is required"
	}
	if utf8.RuneCountInString(n.CustomerPhone) < 10 {
		fields["customerPhone"] = "Valid phone number required"
	}
	if !validEmail(emailValidator, n.CustomerEmail) {
		fields["customerEmail"] = "Invalid email address"
	}

	switch {
	case n.PaymentMethod == "":
		fields["paymentMethod"] = "Payment method is required"
	case !contains(methods, n.PaymentMethod):
		fields["paymentMethod"] = "Unsupported payment method"
	}

	return fields
}

func validEmail(v *validator.Validate, email string) bool {
	return email != "" && v.Var(email, "email") == nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
