// Package company manages the process-wide company profile: the issuing
// business's details, logo and default terms. The profile seeds the company
// snapshot on every new quotation unless the request overrides fields inline.
package company

// Profile holds the configurable company defaults.
type Profile struct {
	Name         string `json:"name" validate:"required"`
	Address      string `json:"address"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone"`
	GSTNumber    string `json:"gst_number"`
	MSMENumber   string `json:"msme_number"`
	Warranty     string `json:"warranty"`
	Cancellation string `json:"cancellation"`
	Penalty      string `json:"penalty"`
}

// DefaultProfile returns the built-in profile used until a configuration is
// explicitly saved.
func DefaultProfile() Profile {
	return Profile{
		Name:       "MACHT AUTOMATION LLP",
		Address:    "Off 01, Grd Floor, Laxmi Niwas, Ram Maruti Road, Naupada, Thane (W) Thane 400602, Maharashtra, India.",
		Email:      "sales@macht-automation.com",
		Phone:      "9820667352 / 9167930569",
		GSTNumber:  "27ABRFM7709G1ZR",
		MSMENumber: "UDYAM-MH-33-0133361",
		Warranty: "Period shall be within 12 months from the date of commissioning or 18 months " +
			"from the date of supply whichever is earlier. Warranty is not applicable for spare parts.",
		Cancellation: "In case of cancellation of order after 7 days of PO placement, cancellation charges " +
			"would be applicable at the rate of 20% for standard valves and 40% for Non Standard valves on the order value.",
		Penalty: "In case of Non lifting of consignment after the contractual delivery date, we reserve " +
			"the right to charge penalty at the rate of 5% per month on order value.",
	}
}
