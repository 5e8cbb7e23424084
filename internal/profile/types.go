// Package profile models the optional user-profile sections and how complete they are.
package profile

import "fmt"

// Routine lists products used morning and evening.
type Routine struct {
	Morning []string `json:"morning"`
	Evening []string `json:"evening"`
}

// Skin is the skin profile section.
type Skin struct {
	SkinType             string   `json:"skin_type" yaml:"skin_type"`
	SkinTone             string   `json:"skin_tone" yaml:"skin_tone"`
	Undertone            string   `json:"undertone" yaml:"undertone"`
	FitzpatrickPhototype int      `json:"fitzpatrick_phototype" yaml:"fitzpatrick_phototype"`
	PrimaryConcerns      []string `json:"primary_concerns" yaml:"primary_concerns"`
	KnownAllergies       []string `json:"known_allergies" yaml:"known_allergies"`
	SkinSensitivity      string   `json:"skin_sensitivity" yaml:"skin_sensitivity"`
	DailySunExposure     int      `json:"daily_sun_exposure" yaml:"daily_sun_exposure"`
	SunscreenUsage       string   `json:"sunscreen_usage" yaml:"sunscreen_usage"`
	CurrentRoutine       Routine  `json:"current_routine" yaml:"current_routine"`
	PhotoAnalysisConsent bool     `json:"photo_analysis_consent" yaml:"photo_analysis_consent"`
}

// ChemicalTreatments records coloring and the last salon treatment.
type ChemicalTreatments struct {
	Coloring          string `json:"coloring" yaml:"coloring"`
	LastTreatmentDate string `json:"last_treatment_date,omitempty" yaml:"last_treatment_date,omitempty"`
}

// HairRoutine is the current hair care routine.
type HairRoutine struct {
	ShampooFrequency string   `json:"shampoo_frequency" yaml:"shampoo_frequency"`
	Conditioning     string   `json:"conditioning" yaml:"conditioning"`
	OilsUsed         []string `json:"oils_used" yaml:"oils_used"`
}

// Hair is the hair profile section.
type Hair struct {
	HairPattern          string             `json:"hair_pattern" yaml:"hair_pattern"`
	HairTexture          string             `json:"hair_texture" yaml:"hair_texture"`
	HairThickness        string             `json:"hair_thickness" yaml:"hair_thickness"`
	HairDensity          string             `json:"hair_density" yaml:"hair_density"`
	ScalpType            string             `json:"scalp_type" yaml:"scalp_type"`
	ScalpConcerns        []string           `json:"scalp_concerns" yaml:"scalp_concerns"`
	HairPorosity         string             `json:"hair_porosity" yaml:"hair_porosity"`
	HairConcerns         []string           `json:"hair_concerns" yaml:"hair_concerns"`
	ChemicalTreatments   ChemicalTreatments `json:"chemical_treatments" yaml:"chemical_treatments"`
	HeatStylingFrequency string             `json:"heat_styling_frequency" yaml:"heat_styling_frequency"`
	CurrentHairRoutine   HairRoutine        `json:"current_hair_routine" yaml:"current_hair_routine"`
	WashFrequency        int                `json:"wash_frequency" yaml:"wash_frequency"`
}

// DietaryPreferences captures food habits relevant to skin.
type DietaryPreferences struct {
	SpicyFood     bool   `json:"spicy_food" yaml:"spicy_food"`
	ProcessedFood string `json:"processed_food" yaml:"processed_food"`
}

// Lifestyle is the lifestyle and environment section.
type Lifestyle struct {
	LocationCity       string             `json:"location_city" yaml:"location_city"`
	LocationState      string             `json:"location_state" yaml:"location_state"`
	ClimateType        string             `json:"climate_type" yaml:"climate_type"`
	PollutionLevel     string             `json:"pollution_level" yaml:"pollution_level"`
	UVExposureLevel    string             `json:"uv_exposure_level" yaml:"uv_exposure_level"`
	WaterQuality       string             `json:"water_quality" yaml:"water_quality"`
	DietType           string             `json:"diet_type" yaml:"diet_type"`
	HydrationLevel     string             `json:"hydration_level" yaml:"hydration_level"`
	DietaryPreferences DietaryPreferences `json:"dietary_preferences" yaml:"dietary_preferences"`
	SleepHours         float64            `json:"sleep_hours" yaml:"sleep_hours"`
	SleepQuality       string             `json:"sleep_quality" yaml:"sleep_quality"`
	StressLevel        string             `json:"stress_level" yaml:"stress_level"`
	ExerciseFrequency  string             `json:"exercise_frequency" yaml:"exercise_frequency"`
	SmokingStatus      string             `json:"smoking_status" yaml:"smoking_status"`
	AlcoholConsumption string             `json:"alcohol_consumption" yaml:"alcohol_consumption"`
	WorkEnvironment    string             `json:"work_environment" yaml:"work_environment"`
	ScreenTimeHours    float64            `json:"screen_time_hours" yaml:"screen_time_hours"`
	ACExposureHours    float64            `json:"ac_exposure_hours" yaml:"ac_exposure_hours"`
}

// Medications splits topical and oral medication.
type Medications struct {
	Skincare []string `json:"skincare" yaml:"skincare"`
	Oral     []string `json:"oral" yaml:"oral"`
}

// Health is the health and medical section.
type Health struct {
	SkinConditions           []string    `json:"skin_conditions" yaml:"skin_conditions"`
	HairScalpDisorders       []string    `json:"hair_scalp_disorders" yaml:"hair_scalp_disorders"`
	SystemicAllergies        []string    `json:"systemic_allergies" yaml:"systemic_allergies"`
	Photosensitivity         bool        `json:"photosensitivity" yaml:"photosensitivity"`
	CurrentMedications       Medications `json:"current_medications" yaml:"current_medications"`
	HormonalStatus           string      `json:"hormonal_status" yaml:"hormonal_status"`
	MenstrualCycleRegularity string      `json:"menstrual_cycle_regularity,omitempty" yaml:"menstrual_cycle_regularity,omitempty"`
	ChronicConditions        []string    `json:"chronic_conditions" yaml:"chronic_conditions"`
	FamilyHistorySkin        []string    `json:"family_history_skin" yaml:"family_history_skin"`
	FamilyHistoryHair        []string    `json:"family_history_hair" yaml:"family_history_hair"`
	MentalHealthStatus       string      `json:"mental_health_status" yaml:"mental_health_status"`
}

// FinishPreferences are preferred product finishes.
type FinishPreferences struct {
	Eyeshadow string `json:"eyeshadow" yaml:"eyeshadow"`
	Lipstick  string `json:"lipstick" yaml:"lipstick"`
}

// Makeup is the makeup preferences section.
type Makeup struct {
	FoundationShade          string            `json:"foundation_shade" yaml:"foundation_shade"`
	FoundationUndertone      string            `json:"foundation_undertone" yaml:"foundation_undertone"`
	FoundationFinish         string            `json:"foundation_finish" yaml:"foundation_finish"`
	CoveragePreference       string            `json:"coverage_preference" yaml:"coverage_preference"`
	MakeupFrequency          string            `json:"makeup_frequency" yaml:"makeup_frequency"`
	MakeupStyle              string            `json:"makeup_style" yaml:"makeup_style"`
	PreferredLipColors       []string          `json:"preferred_lip_colors" yaml:"preferred_lip_colors"`
	PreferredEyeColors       []string          `json:"preferred_eye_colors" yaml:"preferred_eye_colors"`
	PreferredBlushColors     []string          `json:"preferred_blush_colors" yaml:"preferred_blush_colors"`
	ProductFinishPreferences FinishPreferences `json:"product_finish_preferences" yaml:"product_finish_preferences"`
	BrandPreferences         []string          `json:"brand_preferences" yaml:"brand_preferences"`
	PriceRangePreference     string            `json:"price_range_preference" yaml:"price_range_preference"`
	MakeupAllergies          []string          `json:"makeup_allergies" yaml:"makeup_allergies"`
	SensitiveEyes            bool              `json:"sensitive_eyes" yaml:"sensitive_eyes"`
	ContactLenses            bool              `json:"contact_lenses" yaml:"contact_lenses"`
}

// Complete is the aggregated profile returned by /profile/complete. Unfilled
// sections are nil.
type Complete struct {
	ID               string     `json:"id" yaml:"id"`
	Email            string     `json:"email" yaml:"email"`
	FirstName        string     `json:"first_name" yaml:"first_name"`
	LastName         string     `json:"last_name" yaml:"last_name"`
	ProfileCompleted bool       `json:"profile_completed" yaml:"profile_completed"`
	Skin             *Skin      `json:"skin_profiles,omitempty" yaml:"skin,omitempty"`
	Hair             *Hair      `json:"hair_profiles,omitempty" yaml:"hair,omitempty"`
	Lifestyle        *Lifestyle `json:"lifestyle_demographics,omitempty" yaml:"lifestyle,omitempty"`
	Health           *Health    `json:"health_medical_conditions,omitempty" yaml:"health,omitempty"`
	Makeup           *Makeup    `json:"makeup_preferences,omitempty" yaml:"makeup,omitempty"`
}

// NewSection returns a pointer to an empty value of the struct backing id.
func NewSection(id SectionID) (any, error) {
	switch id {
	case SectionSkin:
		return &Skin{}, nil
	case SectionHair:
		return &Hair{}, nil
	case SectionLifestyle:
		return &Lifestyle{}, nil
	case SectionHealth:
		return &Health{}, nil
	case SectionMakeup:
		return &Makeup{}, nil
	}
	return nil, fmt.Errorf("unknown profile section %q", id)
}
