package builder

import "github.com/chris/money-movement/pkg/models"

// Field names accepted from compose forms.
const (
	FieldAmount              = "amount"
	FieldDescription         = "description"
	FieldSaveRecipient       = "save_recipient"
	FieldRecipientNickname   = "recipient_nickname"
	FieldRecipientEmail      = "recipient_email"
	FieldRecipientName       = "recipient_name"
	FieldRoutingNumber       = "routing_number"
	FieldAccountNumber       = "account_number"
	FieldBankName            = "bank_name"
	FieldAccountType         = "account_type"
	FieldReference           = "reference"
	FieldRecipientAddress    = "recipient_address"
	FieldRecipientCity       = "recipient_city"
	FieldRecipientCountry    = "recipient_country"
	FieldRecipientPostalCode = "recipient_postal_code"
	FieldSwiftCode           = "swift_code"
	FieldIBAN                = "iban"
	FieldBankAddress         = "bank_address"
	FieldPurpose             = "purpose"
)

// RawFields is the untyped input of a compose form.
type RawFields map[string]string

var commonFields = []string{
	FieldAmount,
	FieldDescription,
	FieldSaveRecipient,
	FieldRecipientNickname,
}

var channelFields = map[models.TransferChannel][]string{
	models.ChannelInternal: {
		FieldRecipientEmail,
	},
	models.ChannelACH: {
		FieldRecipientName,
		FieldRoutingNumber,
		FieldAccountNumber,
		FieldBankName,
		FieldAccountType,
	},
	models.ChannelWireDomestic: {
		FieldRecipientName,
		FieldRoutingNumber,
		FieldAccountNumber,
		FieldBankName,
		FieldReference,
	},
	models.ChannelWireInternational: {
		FieldRecipientName,
		FieldRecipientAddress,
		FieldRecipientCity,
		FieldRecipientCountry,
		FieldRecipientPostalCode,
		FieldAccountNumber,
		FieldSwiftCode,
		FieldIBAN,
		FieldBankName,
		FieldBankAddress,
		FieldPurpose,
	},
}

// AllowedFields returns every field a channel accepts, common ones first.
// It returns nil for an unknown channel.
func AllowedFields(channel models.TransferChannel) []string {
	specific, ok := channelFields[channel]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(commonFields)+len(specific))
	out = append(out, commonFields...)
	return append(out, specific...)
}

// Allowed reports whether field belongs to channel.
func Allowed(channel models.TransferChannel, field string) bool {
	for _, f := range AllowedFields(channel) {
		if f == field {
			return true
		}
	}
	return false
}
