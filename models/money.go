package models

import "fmt"

// PaisePerRupee converts whole-rupee inputs to the minor units stored everywhere
const PaisePerRupee = 100

// FormatINR renders an amount in paise as rupees, e.g. 1050 -> "₹10.50"
func FormatINR(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/PaisePerRupee, paise%PaisePerRupee)
}
