package conversation

import "strings"

// Provider is a mobile-money network the customer can pay with.
type Provider string

const (
	ProviderMPesa    Provider = "mpesa"
	ProviderTigoPesa Provider = "tigopesa"
	ProviderAirtel   Provider = "airtelmoney"
	ProviderHalopesa Provider = "halopesa"
)

// Providers is the order in which networks are offered; customers may answer with the position.
var Providers = []Provider{ProviderMPesa, ProviderTigoPesa, ProviderAirtel, ProviderHalopesa}

var providerAliases = map[string]Provider{
	"1":            ProviderMPesa,
	"mpesa":        ProviderMPesa,
	"m-pesa":       ProviderMPesa,
	"m pesa":       ProviderMPesa,
	"vodacom":      ProviderMPesa,
	"voda":         ProviderMPesa,
	"2":            ProviderTigoPesa,
	"tigo":         ProviderTigoPesa,
	"tigopesa":     ProviderTigoPesa,
	"tigo pesa":    ProviderTigoPesa,
	"mixx":         ProviderTigoPesa,
	"3":            ProviderAirtel,
	"airtel":       ProviderAirtel,
	"airtelmoney":  ProviderAirtel,
	"airtel money": ProviderAirtel,
	"4":            ProviderHalopesa,
	"halo":         ProviderHalopesa,
	"halopesa":     ProviderHalopesa,
	"halo pesa":    ProviderHalopesa,
	"halotel":      ProviderHalopesa,
}

func ParseProvider(input string) (Provider, bool) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(input))]
	return p, ok
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderMPesa, ProviderTigoPesa, ProviderAirtel, ProviderHalopesa:
		return true
	}
	return false
}

func (p Provider) Label() string {
	switch p {
	case ProviderMPesa:
		return "M-Pesa (Vodacom)"
	case ProviderTigoPesa:
		return "Tigo Pesa"
	case ProviderAirtel:
		return "Airtel Money"
	case ProviderHalopesa:
		return "Halopesa"
	}
	return string(p)
}

// NetworkCode is the gateway's name for the network. Unset providers charge through M-Pesa.
func (p Provider) NetworkCode() string {
	switch p {
	case ProviderTigoPesa:
		return "TIGO"
	case ProviderAirtel:
		return "AIRTEL"
	case ProviderHalopesa:
		return "HALOPESA"
	}
	return "MPESA"
}
