package calendar

// MonthData holds the static seasonal factors for one month.
type MonthData struct {
	DayStart           int     `json:"day_start"` // first daylight hour
	DayEnd             int     `json:"day_end"`   // first dark hour after daylight
	SunshineFactor     float64 `json:"sunshine_factor"`
	WindspeedFactor    float64 `json:"windspeed_factor"`
	CloudFormingFactor float64 `json:"cloud_forming_factor"`
}

// Daylight returns the number of daylight hours.
func (m MonthData) Daylight() int { return m.DayEnd - m.DayStart }

// Months indexes month 1–12 at 0–11. Winter months are windy, cloudy and
// short; summer months the reverse.
var Months = [12]MonthData{
	{DayStart: 8, DayEnd: 16, SunshineFactor: 0.55, WindspeedFactor: 1.30, CloudFormingFactor: 1.30},
	{DayStart: 7, DayEnd: 17, SunshineFactor: 0.65, WindspeedFactor: 1.25, CloudFormingFactor: 1.20},
	{DayStart: 7, DayEnd: 18, SunshineFactor: 0.80, WindspeedFactor: 1.15, CloudFormingFactor: 1.10},
	{DayStart: 6, DayEnd: 19, SunshineFactor: 0.90, WindspeedFactor: 1.05, CloudFormingFactor: 1.00},
	{DayStart: 5, DayEnd: 20, SunshineFactor: 1.00, WindspeedFactor: 0.95, CloudFormingFactor: 0.90},
	{DayStart: 5, DayEnd: 21, SunshineFactor: 1.10, WindspeedFactor: 0.85, CloudFormingFactor: 0.75},
	{DayStart: 5, DayEnd: 21, SunshineFactor: 1.15, WindspeedFactor: 0.80, CloudFormingFactor: 0.70},
	{DayStart: 5, DayEnd: 20, SunshineFactor: 1.10, WindspeedFactor: 0.85, CloudFormingFactor: 0.80},
	{DayStart: 6, DayEnd: 19, SunshineFactor: 0.95, WindspeedFactor: 0.95, CloudFormingFactor: 0.95},
	{DayStart: 7, DayEnd: 18, SunshineFactor: 0.80, WindspeedFactor: 1.10, CloudFormingFactor: 1.10},
	{DayStart: 7, DayEnd: 17, SunshineFactor: 0.65, WindspeedFactor: 1.20, CloudFormingFactor: 1.25},
	{DayStart: 8, DayEnd: 16, SunshineFactor: 0.50, WindspeedFactor: 1.30, CloudFormingFactor: 1.35},
}

// MonthInfo returns the factors for month 1–12. Out-of-range months are
// clamped.
func MonthInfo(month int) MonthData {
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	return Months[month-1]
}
