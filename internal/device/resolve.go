package device

import "unicode/utf8"

// legacySerial is reported by early Ear (1) firmware instead of a real serial.
const legacySerial = "12345678901234567"

const minSerialLen = 8

var modelsByName = map[string]Model{
	"Nothing Ear (1)":       {LineEar1, ColorBlack},
	"Nothing Ear (2)":       {LineEar2, ColorBlack},
	"Nothing Ear (3)":       {LineEar3, ColorBlack},
	"Nothing Ear (stick)":   {LineEarStick, ColorNone},
	"Nothing Ear (open)":    {LineEarOpen, ColorNone},
	"Nothing Ear":           {LineEar, ColorBlack},
	"Nothing Ear (a)":       {LineEarA, ColorBlack},
	"Nothing Headphone (1)": {LineHeadphone1, ColorBlack},
	"CMF Buds Pro":          {LineCMFBudsPro, ColorBlack},
	"CMF Buds":              {LineCMFBuds, ColorBlack},
	"CMF Buds 2A":           {LineCMFBuds2a, ColorDarkGrey},
	"CMF Buds 2a":           {LineCMFBuds2a, ColorDarkGrey},
	"CMF Buds 2":            {LineCMFBuds2, ColorDarkGrey},
	"CMF Buds 2 Plus":       {LineCMFBuds2Plus, ColorLightGrey},
	"CMF Buds Pro 2":        {LineCMFBudsPro2, ColorBlack},
	"CMF Neckband Pro":      {LineCMFNeckbandPro, ColorBlack},
	"CMF Headphone Pro":     {LineCMFHeadphonePro, ColorDarkGrey},
}

var modelsBySKU = map[string]Model{}

func init() {
	skus := []struct {
		model Model
		skus  []string
	}{
		{Model{LineEar1, ColorWhite}, []string{"01", "03", "07"}},
		{Model{LineEar1, ColorBlack}, []string{"02", "04", "06", "08", "10"}},
		{Model{LineEarStick, ColorNone}, []string{"14", "15", "16"}},
		{Model{LineEarOpen, ColorNone}, []string{"11200005"}},
		{Model{LineEar2, ColorWhite}, []string{"17", "18", "19"}},
		{Model{LineEar2, ColorBlack}, []string{"27", "28", "29"}},
		{Model{LineEar3, ColorWhite}, []string{"25"}},
		{Model{LineEar3, ColorBlack}, []string{"26"}},
		{Model{LineCMFBudsPro, ColorBlack}, []string{"30", "31"}},
		{Model{LineCMFBudsPro, ColorWhite}, []string{"32", "33"}},
		{Model{LineCMFBudsPro, ColorOrange}, []string{"34", "35"}},
		{Model{LineCMFNeckbandPro, ColorOrange}, []string{"48", "53"}},
		{Model{LineCMFNeckbandPro, ColorWhite}, []string{"49", "52"}},
		{Model{LineCMFNeckbandPro, ColorBlack}, []string{"50", "51"}},
		{Model{LineCMFBuds, ColorBlack}, []string{"54", "55"}},
		{Model{LineCMFBuds, ColorWhite}, []string{"56", "57"}},
		{Model{LineCMFBuds, ColorOrange}, []string{"58", "59"}},
		{Model{LineCMFBuds2, ColorDarkGrey}, []string{"99"}},
		{Model{LineEar, ColorBlack}, []string{"61", "69", "74"}},
		{Model{LineEar, ColorWhite}, []string{"62", "70", "75"}},
		{Model{LineEarA, ColorBlack}, []string{"63", "66", "71"}},
		{Model{LineEarA, ColorWhite}, []string{"64", "67", "72"}},
		{Model{LineEarA, ColorYellow}, []string{"65", "68", "73"}},
		{Model{LineCMFBudsPro2, ColorBlack}, []string{"76", "83"}},
		{Model{LineCMFBudsPro2, ColorWhite}, []string{"77", "82"}},
		{Model{LineCMFBudsPro2, ColorOrange}, []string{"78", "81"}},
		{Model{LineCMFBudsPro2, ColorBlue}, []string{"79", "80"}},
		{Model{LineHeadphone1, ColorBlack}, []string{"603"}},
		{Model{LineHeadphone1, ColorGrey}, []string{"606"}},
		{Model{LineCMFHeadphonePro, ColorDarkGrey}, []string{"84", "87"}},
		{Model{LineCMFHeadphonePro, ColorLightGrey}, []string{"85", "88"}},
		{Model{LineCMFHeadphonePro, ColorLightGreen}, []string{"86", "89"}},
	}
	for _, entry := range skus {
		for _, sku := range entry.skus {
			modelsBySKU[sku] = entry.model
		}
	}
}

// FromName resolves a model from an advertised Bluetooth name. The color is
// the line's default since names do not carry it.
func FromName(name string) (Model, bool) {
	m, ok := modelsByName[name]
	return m, ok
}

// FromSerial resolves a model and color from a serial number.
func FromSerial(serial string) (Model, bool) {
	if serial == legacySerial {
		return Model{LineEar1, ColorWhite}, true
	}
	sku, ok := serialSKU(serial)
	if !ok {
		return Model{}, false
	}
	m, ok := modelsBySKU[sku]
	return m, ok
}

// serialSKU extracts the SKU according to the two character serial prefix:
//
//	MA  year at [6:8]; 22 and 23 are Ear (stick), 24 is Ear (open)
//	SH  SKU at [4:6]
//	13  SKU at [4:6]
//	M3  SKU at [3:6]
func serialSKU(serial string) (string, bool) {
	if utf8.RuneCountInString(serial) < minSerialLen {
		return "", false
	}
	s := []rune(serial)

	switch string(s[:2]) {
	case "MA":
		switch string(s[6:8]) {
		case "22", "23":
			return "14", true
		case "24":
			return "11200005", true
		}
	case "SH", "13":
		return string(s[4:6]), true
	case "M3":
		return string(s[3:6]), true
	}
	return "", false
}

// Resolve reconciles the name and serial candidates. A single candidate wins
// on its own. When both agree on the line the serial candidate wins because
// it carries the color; when they disagree the name wins.
func Resolve(name, serial string) (Model, bool) {
	byName, nameOK := FromName(name)
	bySerial, serialOK := FromSerial(serial)

	switch {
	case !serialOK:
		return byName, nameOK
	case !nameOK:
		return bySerial, true
	case byName.SameLine(bySerial):
		return bySerial, true
	default:
		return byName, true
	}
}
