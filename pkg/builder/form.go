package builder

import (
	"errors"
	"fmt"
	"maps"

	"github.com/chris/money-movement/pkg/models"
	"github.com/chris/money-movement/pkg/policy"
	"github.com/shopspring/decimal"
)

// ErrFieldNotAllowed is returned when a field does not belong to the form's channel.
var ErrFieldNotAllowed = errors.New("field not allowed for channel")

// Form holds the in-progress input of one compose screen. Switching channel
// discards every field the new channel does not accept.
type Form struct {
	channel models.TransferChannel
	fields  RawFields
}

// NewForm returns an empty form for channel.
func NewForm(channel models.TransferChannel) (*Form, error) {
	if !channel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return &Form{channel: channel, fields: RawFields{}}, nil
}

// Channel returns the currently selected channel.
func (f *Form) Channel() models.TransferChannel {
	return f.channel
}

// Set stores a raw value. Empty values clear the field.
func (f *Form) Set(field, value string) error {
	if !Allowed(f.channel, field) {
		return fmt.Errorf("%w: %s on %s", ErrFieldNotAllowed, field, f.channel)
	}
	if value == "" {
		delete(f.fields, field)
		return nil
	}
	f.fields[field] = value
	return nil
}

// SetChannel switches the form and drops fields foreign to the new channel.
func (f *Form) SetChannel(channel models.TransferChannel) error {
	if !channel.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	f.channel = channel
	maps.DeleteFunc(f.fields, func(field, _ string) bool {
		return !Allowed(channel, field)
	})
	return nil
}

// Fields returns a copy of the current values.
func (f *Form) Fields() RawFields {
	return maps.Clone(f.fields)
}

// Quote recomputes the fee preview from the current amount. An empty or
// unparsable amount previews as zero.
func (f *Form) Quote() (models.FeeQuote, error) {
	amount, err := ParseAmount(f.fields[FieldAmount])
	if err != nil {
		amount = decimal.Zero
	}
	return policy.Quote(f.channel, amount)
}

// Build validates the form and returns the typed request.
func (f *Form) Build() (models.TransferRequest, error) {
	return Build(f.channel, f.fields)
}
