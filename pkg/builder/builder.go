// Package builder validates compose-form input and assembles channel-specific
// transfer requests. It never calls the network.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/policy"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

const (
	maxDescriptionLength = 100
	maxNameLength        = 100
	maxNicknameLength    = 50
)

var (
	routingNumberRe = regexp.MustCompile(`^\d{9}$`)
	accountNumberRe = regexp.MustCompile(`^\d{4,17}$`)
	intlAccountRe   = regexp.MustCompile(`^[A-Za-z0-9]{4,34}$`)
	swiftCodeRe     = regexp.MustCompile(`^[A-Za-z0-9]{8,11}$`)
	ibanRe          = regexp.MustCompile(`^[A-Za-z]{2}\d{2}[A-Za-z0-9]{11,30}$`)
)

// ErrUnknownChannel is returned when Build is asked for a channel it does not know.
var ErrUnknownChannel = errors.New("unknown transfer channel")

// Build validates raw against the rules of channel and returns the typed
// request. Fields that do not belong to channel are ignored. On failure the
// error is a models.ValidationErrors listing every problem found.
func Build(channel models.TransferChannel, raw RawFields) (models.TransferRequest, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	v := &validator{raw: raw}
	common := v.common(channel)

	var req models.TransferRequest
	switch channel {
	case models.ChannelInternal:
		req = models.InternalTransfer{
			CommonFields:   common,
			RecipientEmail: v.email(FieldRecipientEmail),
		}
	case models.ChannelACH:
		req = models.ACHTransfer{
			CommonFields:  common,
			RecipientName: v.text(FieldRecipientName, maxNameLength),
			RoutingNumber: v.pattern(FieldRoutingNumber, routingNumberRe, "must be exactly 9 digits"),
			AccountNumber: v.pattern(FieldAccountNumber, accountNumberRe, "must be 4 to 17 digits"),
			BankName:      v.text(FieldBankName, maxNameLength),
			AccountType:   v.accountType(FieldAccountType),
		}
	case models.ChannelWireDomestic:
		req = models.DomesticWireTransfer{
			CommonFields:  common,
			RecipientName: v.text(FieldRecipientName, maxNameLength),
			RoutingNumber: v.pattern(FieldRoutingNumber, routingNumberRe, "must be exactly 9 digits"),
			AccountNumber: v.pattern(FieldAccountNumber, accountNumberRe, "must be 4 to 17 digits"),
			BankName:      v.text(FieldBankName, maxNameLength),
			Reference:     v.optionalText(FieldReference, maxDescriptionLength),
		}
	case models.ChannelWireInternational:
		req = models.InternationalWireTransfer{
			CommonFields:  common,
			RecipientName: v.text(FieldRecipientName, maxNameLength),
			RecipientAddress: models.Address{
				Street:     v.text(FieldRecipientAddress, maxNameLength),
				City:       v.text(FieldRecipientCity, maxNameLength),
				Country:    v.text(FieldRecipientCountry, maxNameLength),
				PostalCode: v.optionalText(FieldRecipientPostalCode, 20),
			},
			AccountNumber: v.pattern(FieldAccountNumber, intlAccountRe, "must be 4 to 34 letters or digits"),
			SwiftCode:     strings.ToUpper(v.pattern(FieldSwiftCode, swiftCodeRe, "must be 8 to 11 letters or digits")),
			IBAN:          strings.ToUpper(v.optionalPattern(FieldIBAN, ibanRe, "is not a valid IBAN")),
			BankName:      v.text(FieldBankName, maxNameLength),
			BankAddress:   v.text(FieldBankAddress, maxNameLength),
			Purpose:       v.text(FieldPurpose, maxDescriptionLength),
		}
	}

	if len(v.errs) > 0 {
		return nil, v.errs
	}
	return req, nil
}

// ParseAmount parses a user-entered amount. Amounts carry at most two
// decimal places.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" {
		return decimal.Decimal{}, errors.New("is required")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, errors.New("must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, errors.New("must be greater than zero")
	}
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return decimal.Decimal{}, errors.New("must have at most two decimal places")
	}
	return amount, nil
}

type validator struct {
	raw  RawFields
	errs models.ValidationErrors
}

func (v *validator) fail(field, message string) {
	v.errs = append(v.errs, models.ValidationError{Field: field, Message: message})
}

func (v *validator) value(field string) string {
	return strings.TrimSpace(v.raw[field])
}

func (v *validator) common(channel models.TransferChannel) models.CommonFields {
	var common models.CommonFields

	amount, err := ParseAmount(v.raw[FieldAmount])
	if err != nil {
		v.fail(FieldAmount, err.Error())
	} else if err := policy.CheckLimit(channel, amount); err != nil {
		ceiling, _ := policy.Ceiling(channel)
		v.fail(FieldAmount, fmt.Sprintf("must not exceed %s", ceiling.StringFixed(2)))
	} else {
		common.Amount = amount
	}

	description := v.value(FieldDescription)
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		v.fail(FieldDescription, "is required")
	case n > maxDescriptionLength:
		v.fail(FieldDescription, fmt.Sprintf("must be at most %d characters", maxDescriptionLength))
	default:
		common.Description = description
	}

	if raw := v.value(FieldSaveRecipient); raw != "" {
		save, err := strconv.ParseBool(raw)
		if err != nil {
			v.fail(FieldSaveRecipient, "must be true or false")
		}
		common.SaveRecipient = save
	}
	common.RecipientNickname = v.optionalText(FieldRecipientNickname, maxNicknameLength)

	return common
}

func (v *validator) text(field string, max int) string {
	s := v.value(field)
	if s == "" {
		v.fail(field, "is required")
		return ""
	}
	if utf8.RuneCountInString(s) > max {
		v.fail(field, fmt.Sprintf("must be at most %d characters", max))
		return ""
	}
	return s
}

func (v *validator) optionalText(field string, max int) string {
	s := v.value(field)
	if utf8.RuneCountInString(s) > max {
		v.fail(field, fmt.Sprintf("must be at most %d characters", max))
		return ""
	}
	return s
}

func (v *validator) pattern(field string, re *regexp.Regexp, message string) string {
	s := strings.ReplaceAll(v.value(field), " ", "")
	if s == "" {
		v.fail(field, "is required")
		return ""
	}
	if !re.MatchString(s) {
		v.fail(field, message)
		return ""
	}
	return s
}

func (v *validator) optionalPattern(field string, re *regexp.Regexp, message string) string {
	if v.value(field) == "" {
		return ""
	}
	return v.pattern(field, re, message)
}

func (v *validator) email(field string) string {
	s := strings.ToLower(v.value(field))
	if s == "" {
		v.fail(field, "is required")
		return ""
	}
	// The wire type rejects malformed addresses when marshalled.
	if _, err := json.Marshal(openapi_types.Email(s)); err != nil {
		v.fail(field, "must be a valid email address")
		return ""
	}
	return s
}

func (v *validator) accountType(field string) models.AccountType {
	switch t := models.AccountType(strings.ToLower(v.value(field))); t {
	case models.AccountChecking, models.AccountSavings:
		return t
	case "":
		v.fail(field, "is required")
	default:
		v.fail(field, "must be checking or savings")
	}
	return ""
}
