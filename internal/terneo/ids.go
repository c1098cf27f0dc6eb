package terneo

// Parameter ids from the vendor protocol documentation.
const (
	ParamStartAwayTime  = 0
	ParamEndAwayTime    = 1
	ParamMode           = 2
	ParamControlType    = 3
	ParamManualAir      = 4
	ParamManualFloor    = 5
	ParamAwayAir        = 6
	ParamAwayFloor      = 7
	ParamPower          = 17
	ParamSensorType     = 18
	ParamHysteresis     = 19
	ParamAirCorrection  = 20
	ParamFloorCorr      = 21
	ParamBrightness     = 23
	ParamPropKoef       = 25
	ParamUpperLimit     = 26
	ParamLowerLimit     = 27
	ParamMaxPeriods     = 28
	ParamTempTemp       = 29
	ParamSetTemp        = 31
	ParamUpperAirLimit  = 33
	ParamLowerAirLimit  = 34
	ParamNightStart     = 52
	ParamNightEnd       = 53
	ParamOffButtonLock  = 109
	ParamAndroidBlock   = 114
	ParamCloudBlock     = 115
	ParamNCContact      = 117
	ParamCoolingWay     = 118
	ParamUseNightBright = 120
	ParamPreControl     = 121
	ParamWindowControl  = 122
	ParamChildrenLock   = 124
	ParamPowerToggle    = 125
)

// Values of ParamMode.
const (
	ModeSchedule = 0
	ModeManual   = 1
)

// Values of ParamControlType.
const (
	ControlTypeFloor    = 0
	ControlTypeAir      = 1
	ControlTypeExtended = 2
)

// ParamInfo names a parameter and fixes its wire type. Temperature-valued
// parameters use 16-bit tags so temperature tenths always fit.
type ParamInfo struct {
	Name        string
	Type        TypeTag
	Temperature bool
}

// KnownParams maps parameter id to its wire type. Semantic writes consult
// this table to pick the encode type; ids outside it can only be written
// through the raw-parameter path once their value decodes cleanly.
var KnownParams = map[int]ParamInfo{
	ParamStartAwayTime:  {"startAwayTime", TypeUInt32, false},
	ParamEndAwayTime:    {"endAwayTime", TypeUInt32, false},
	ParamMode:           {"mode", TypeUInt8, false},
	ParamControlType:    {"controlType", TypeUInt8, false},
	ParamManualAir:      {"manualAir", TypeInt16, true},
	ParamManualFloor:    {"manualFloorTemperature", TypeInt16, true},
	ParamAwayAir:        {"awayAirTemperature", TypeInt16, true},
	ParamAwayFloor:      {"awayFloorTemperature", TypeInt16, true},
	ParamPower:          {"power", TypeUInt16, false},
	ParamSensorType:     {"sensorType", TypeUInt8, false},
	ParamHysteresis:     {"hysteresis", TypeUInt8, false},
	ParamAirCorrection:  {"airCorrection", TypeInt8, false},
	ParamFloorCorr:      {"floorCorrection", TypeInt8, false},
	ParamBrightness:     {"brightness", TypeUInt8, false},
	ParamPropKoef:       {"propKoef", TypeUInt8, false},
	ParamUpperLimit:     {"upperLimit", TypeInt16, true},
	ParamLowerLimit:     {"lowerLimit", TypeInt16, true},
	ParamMaxPeriods:     {"maxSchedulePeriod", TypeUInt8, false},
	ParamTempTemp:       {"tempTemperature", TypeInt16, true},
	ParamSetTemp:        {"setTemperature", TypeInt16, true},
	ParamUpperAirLimit:  {"upperAirLimit", TypeInt16, true},
	ParamLowerAirLimit:  {"lowerAirLimit", TypeInt16, true},
	ParamNightStart:     {"nightBrightStart", TypeUInt16, false},
	ParamNightEnd:       {"nightBrightEnd", TypeUInt16, false},
	ParamOffButtonLock:  {"offButtonLock", TypeBool, false},
	ParamAndroidBlock:   {"androidBlock", TypeBool, false},
	ParamCloudBlock:     {"cloudBlock", TypeBool, false},
	ParamNCContact:      {"NCContactControl", TypeBool, false},
	ParamCoolingWay:     {"coolingControlWay", TypeBool, false},
	ParamUseNightBright: {"useNightBright", TypeBool, false},
	ParamPreControl:     {"preControl", TypeBool, false},
	ParamWindowControl:  {"windowOpenControl", TypeBool, false},
	ParamChildrenLock:   {"childrenLock", TypeBool, false},
	ParamPowerToggle:    {"powerToggle", TypeBool, false},
}
