// Package admissions cleans the hospital admissions dataset: it drops
// incomplete and invalid rows, derives numeric features from the bucketed
// columns and z-scores the continuous ones.
package admissions

import ap "github.com/wdm0006/admitprep/pkg/admitprep"

// Input columns.
const (
	CaseID             = "case_id"
	HospitalCode       = "Hospital_code"
	HospitalTypeCode   = "Hospital_type_code"
	CityCodeHospital   = "City_Code_Hospital"
	HospitalRegionCode = "Hospital_region_code"
	ExtraRooms         = "Available Extra Rooms in Hospital"
	Department         = "Department"
	WardType           = "Ward_Type"
	WardFacilityCode   = "Ward_Facility_Code"
	BedGrade           = "Bed Grade"
	PatientID          = "patientid"
	CityCodePatient    = "City_Code_Patient"
	AdmissionType      = "Type of Admission"
	Severity           = "Severity of Illness"
	Visitors           = "Visitors with Patient"
	Age                = "Age"
	AdmissionDeposit   = "Admission_Deposit"
	Stay               = "Stay"
)

// Derived columns.
const (
	AgeNumeric          = "Age_numeric"
	AgeGroup            = "Age_Group"
	StayNumeric         = "Stay_numeric"
	DailyVisitorsRate   = "Daily_Visitors_Rate"
	CityPatientLossRate = "City_Patient_Loss_Rate"
	SameCityTreatment   = "Same_City_Treatment"
	SeverityEncoded     = "Severity_encoded"

	ScaledSuffix = "_scaled"
)

// ScaledColumns are z-scored, in output order.
var ScaledColumns = []string{AdmissionDeposit, Visitors, AgeNumeric}

// InputSchema is the expected layout of the raw file.
func InputSchema() ap.Schema {
	return ap.Schema{Columns: []ap.ColumnSchema{
		{Name: CaseID, Type: ap.KindInt, Nullable: true},
		{Name: HospitalCode, Type: ap.KindInt, Nullable: true},
		{Name: HospitalTypeCode, Type: ap.KindString, Nullable: true},
		{Name: CityCodeHospital, Type: ap.KindInt, Nullable: true},
		{Name: HospitalRegionCode, Type: ap.KindString, Nullable: true},
		{Name: ExtraRooms, Type: ap.KindInt, Nullable: true},
		{Name: Department, Type: ap.KindString, Nullable: true},
		{Name: WardType, Type: ap.KindString, Nullable: true},
		{Name: WardFacilityCode, Type: ap.KindString, Nullable: true},
		{Name: BedGrade, Type: ap.KindFloat, Nullable: true},
		{Name: PatientID, Type: ap.KindInt, Nullable: true},
		{Name: CityCodePatient, Type: ap.KindFloat, Nullable: true},
		{Name: AdmissionType, Type: ap.KindString, Nullable: true},
		{Name: Severity, Type: ap.KindString, Nullable: true},
		{Name: Visitors, Type: ap.KindInt, Nullable: true},
		{Name: Age, Type: ap.KindString, Nullable: true},
		{Name: AdmissionDeposit, Type: ap.KindFloat, Nullable: true},
		{Name: Stay, Type: ap.KindString, Nullable: true},
	}}
}

// DerivedColumns lists the columns Clean appends, in order.
func DerivedColumns() []string {
	out := []string{AgeNumeric, AgeGroup, StayNumeric, DailyVisitorsRate, CityPatientLossRate, SameCityTreatment, SeverityEncoded}
	for _, c := range ScaledColumns {
		out = append(out, c+ScaledSuffix)
	}
	return out
}

// CoerceSchema replaces the inferred kinds of known input columns with the
// expected ones. Unknown columns keep their inferred kind.
func CoerceSchema(s ap.Schema) ap.Schema {
	want := make(map[string]ap.Kind)
	for _, cs := range InputSchema().Columns {
		want[cs.Name] = cs.Type
	}
	out := ap.Schema{Columns: make([]ap.ColumnSchema, len(s.Columns))}
	for i, cs := range s.Columns {
		if k, ok := want[cs.Name]; ok {
			cs.Type = k
		}
		out.Columns[i] = cs
	}
	return out
}
