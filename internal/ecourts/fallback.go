package ecourts

// FallbackStates is the state list used when the upstream cannot be reached, the codes are
// the ones the case status page uses.
func FallbackStates() []Option {
	return []Option{
		{Value: "2", Text: "Andhra Pradesh"},
		{Value: "36", Text: "Arunachal Pradesh"},
		{Value: "6", Text: "Assam"},
		{Value: "8", Text: "Bihar"},
		{Value: "18", Text: "Chhattisgarh"},
		{Value: "30", Text: "Goa"},
		{Value: "17", Text: "Gujarat"},
		{Value: "14", Text: "Haryana"},
		{Value: "5", Text: "Himachal Pradesh"},
		{Value: "7", Text: "Jharkhand"},
		{Value: "12", Text: "Jammu and Kashmir"},
		{Value: "3", Text: "Karnataka"},
		{Value: "4", Text: "Kerala"},
		{Value: "33", Text: "Ladakh"},
		{Value: "23", Text: "Madhya Pradesh"},
		{Value: "1", Text: "Maharashtra"},
		{Value: "25", Text: "Manipur"},
		{Value: "21", Text: "Meghalaya"},
		{Value: "19", Text: "Mizoram"},
		{Value: "34", Text: "Nagaland"},
		{Value: "11", Text: "Odisha"},
		{Value: "22", Text: "Punjab"},
		{Value: "9", Text: "Rajasthan"},
		{Value: "24", Text: "Sikkim"},
		{Value: "10", Text: "Tamil Nadu"},
		{Value: "29", Text: "Telangana"},
		{Value: "20", Text: "Tripura"},
		{Value: "13", Text: "Uttar Pradesh"},
		{Value: "15", Text: "Uttarakhand"},
		{Value: "16", Text: "West Bengal"},
		{Value: "26", Text: "Delhi"},
		{Value: "27", Text: "Chandigarh"},
		{Value: "35", Text: "Puducherry"},
		{Value: "28", Text: "Andaman and Nicobar Islands"},
		{Value: "37", Text: "Lakshadweep"},
		{Value: "38", Text: "Daman and Diu"},
	}
}
