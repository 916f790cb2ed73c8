package catalog

import "github.com/dunebase/casugen/internal/models"

// defaultCatalog builds the built-in reference data. An operator may layer a
// YAML override file on top via Load(path); the defaults alone already
// pass selfCheck.
func defaultCatalog() *Catalog {
	c := &Catalog{
		Facilities:      defaultFacilities(),
		TriageModifiers: defaultTriageModifiers(),
		DwellTimes:      defaultDwellTimes(),
		TransitTimes:    defaultTransitTimes(),
		Nationalities:   defaultNationalities(),
		InjuryPools:     defaultInjuryPools(),
		WarfarePatterns: defaultWarfarePatterns(),
		TransitionMatrices: defaultTransitionMatrices(),
		VitalsByTriage:  defaultVitalsByTriage(),
		BaseTriageDistribution: map[models.TriageCategory]float64{
			models.TriageT1: 0.25,
			models.TriageT2: 0.40,
			models.TriageT3: 0.35,
		},
	}
	return c
}

func defaultFacilities() map[models.FacilityRole]*FacilityProfile {
	mk := func(role models.FacilityRole, kia, rtd, diag float64, treatments []TreatmentSpec) *FacilityProfile {
		return &FacilityProfile{Role: role, BaseKIARate: kia, BaseRTDRate: rtd, DiagnosticAccuracy: diag, Treatments: treatments}
	}
	return map[models.FacilityRole]*FacilityProfile{
		models.FacilityPOI: mk(models.FacilityPOI, 0.08, 0.01, 0.60, []TreatmentSpec{
			{Procedure: "tourniquet", InjuryType: models.InjuryBattle, Triage: models.TriageT1, Effectiveness: 0.6},
			{Procedure: "buddy_aid", InjuryType: models.InjuryBattle, Triage: models.TriageT2, Effectiveness: 0.3},
		}),
		models.FacilityRole1: mk(models.FacilityRole1, 0.05, 0.10, 0.75, []TreatmentSpec{
			{Procedure: "airway_management", InjuryType: models.InjuryBattle, Triage: models.TriageT1, Effectiveness: 0.5},
			{Procedure: "iv_fluids", InjuryType: models.InjuryNonBattle, Triage: models.TriageT2, Effectiveness: 0.4},
		}),
		models.FacilityRole2: mk(models.FacilityRole2, 0.04, 0.20, 0.85, []TreatmentSpec{
			{Procedure: "damage_control_surgery", InjuryType: models.InjuryBattle, Triage: models.TriageT1, Effectiveness: 0.55},
			{Procedure: "blood_transfusion", InjuryType: models.InjuryBattle, Triage: models.TriageT2, Effectiveness: 0.45},
		}),
		models.FacilityRole3: mk(models.FacilityRole3, 0.03, 0.35, 0.95, []TreatmentSpec{
			{Procedure: "definitive_surgery", InjuryType: models.InjuryBattle, Triage: models.TriageT1, Effectiveness: 0.6},
			{Procedure: "icu_stabilization", InjuryType: models.InjuryBattle, Triage: models.TriageT2, Effectiveness: 0.5},
		}),
		models.FacilityRole4: mk(models.FacilityRole4, 0.015, 0.55, 0.99, []TreatmentSpec{
			{Procedure: "rehabilitation", InjuryType: models.InjuryDisease, Triage: models.TriageT3, Effectiveness: 0.7},
			{Procedure: "reconstructive_surgery", InjuryType: models.InjuryBattle, Triage: models.TriageT2, Effectiveness: 0.6},
		}),
	}
}

func defaultTriageModifiers() TriageModifiers {
	return TriageModifiers{
		KIA: map[models.TriageCategory]float64{models.TriageT1: 2.2, models.TriageT2: 1.0, models.TriageT3: 0.3},
		RTD: map[models.TriageCategory]float64{models.TriageT1: 0.3, models.TriageT2: 1.0, models.TriageT3: 2.0},
	}
}

func defaultDwellTimes() map[dwellKey]TimeRange {
	m := map[dwellKey]TimeRange{}
	ranges := map[models.FacilityRole]map[models.TriageCategory]TimeRange{
		models.FacilityPOI: {
			models.TriageT1: {MinHours: 0.1, MaxHours: 0.5},
			models.TriageT2: {MinHours: 0.2, MaxHours: 1.0},
			models.TriageT3: {MinHours: 0.3, MaxHours: 1.5},
		},
		models.FacilityRole1: {
			models.TriageT1: {MinHours: 0.5, MaxHours: 2},
			models.TriageT2: {MinHours: 1, MaxHours: 4},
			models.TriageT3: {MinHours: 1, MaxHours: 6},
		},
		models.FacilityRole2: {
			models.TriageT1: {MinHours: 2, MaxHours: 12},
			models.TriageT2: {MinHours: 4, MaxHours: 24},
			models.TriageT3: {MinHours: 6, MaxHours: 36},
		},
		models.FacilityRole3: {
			models.TriageT1: {MinHours: 12, MaxHours: 96},
			models.TriageT2: {MinHours: 24, MaxHours: 168},
			models.TriageT3: {MinHours: 24, MaxHours: 120},
		},
		models.FacilityRole4: {
			models.TriageT1: {MinHours: 48, MaxHours: 480},
			models.TriageT2: {MinHours: 48, MaxHours: 360},
			models.TriageT3: {MinHours: 24, MaxHours: 240},
		},
	}
	for facility, byTriage := range ranges {
		for triage, tr := range byTriage {
			m[dwellKey{facility, triage}] = tr
		}
	}
	return m
}

func defaultTransitTimes() map[transitKey]TimeRange {
	m := map[transitKey]TimeRange{}
	legs := []struct {
		from, to models.FacilityRole
		tr       TimeRange
	}{
		{models.FacilityPOI, models.FacilityRole1, TimeRange{0.1, 1}},
		{models.FacilityPOI, models.FacilityRole2, TimeRange{0.3, 2}},
		{models.FacilityPOI, models.FacilityRole3, TimeRange{0.5, 3}},
		{models.FacilityRole1, models.FacilityRole2, TimeRange{0.25, 2}},
		{models.FacilityRole2, models.FacilityRole3, TimeRange{0.5, 4}},
		{models.FacilityRole3, models.FacilityRole4, TimeRange{2, 12}},
		{models.FacilityRole1, models.FacilityRole3, TimeRange{0.5, 4}},
		{models.FacilityRole2, models.FacilityRole4, TimeRange{2, 10}},
	}
	for _, triage := range []models.TriageCategory{models.TriageT1, models.TriageT2, models.TriageT3} {
		mult := 1.0
		switch triage {
		case models.TriageT1:
			mult = 0.7
		case models.TriageT3:
			mult = 1.3
		}
		for _, leg := range legs {
			m[transitKey{leg.from, leg.to, triage}] = TimeRange{leg.tr.MinHours * mult, leg.tr.MaxHours * mult}
		}
	}
	return m
}

func defaultVitalsByTriage() map[models.TriageCategory]VitalsRange {
	return map[models.TriageCategory]VitalsRange{
		models.TriageT1: {
			HeartRate:       TimeRange{110, 160},
			RespiratoryRate: TimeRange{24, 36},
			SystolicBP:      TimeRange{70, 90},
			DiastolicBP:     TimeRange{40, 60},
			SpO2:            TimeRange{82, 92},
			GCS:             TimeRange{6, 12},
			TemperatureC:    TimeRange{34.5, 36.0},
		},
		models.TriageT2: {
			HeartRate:       TimeRange{95, 120},
			RespiratoryRate: TimeRange{18, 26},
			SystolicBP:      TimeRange{90, 115},
			DiastolicBP:     TimeRange{55, 75},
			SpO2:            TimeRange{90, 96},
			GCS:             TimeRange{12, 15},
			TemperatureC:    TimeRange{35.8, 37.2},
		},
		models.TriageT3: {
			HeartRate:       TimeRange{65, 95},
			RespiratoryRate: TimeRange{12, 18},
			SystolicBP:      TimeRange{110, 130},
			DiastolicBP:     TimeRange{70, 85},
			SpO2:            TimeRange{96, 100},
			GCS:             TimeRange{15, 15},
			TemperatureC:    TimeRange{36.4, 37.4},
		},
	}
}

func defaultNationalities() map[string]*NamePool {
	return map[string]*NamePool{
		"coalition_alpha": {
			GivenNamesMale:   []string{"James", "Michael", "David", "Robert", "John"},
			GivenNamesFemale: []string{"Mary", "Sarah", "Jennifer", "Laura", "Emily"},
			FamilyNames:      []string{"Smith", "Johnson", "Williams", "Brown", "Jones"},
		},
		"coalition_bravo": {
			GivenNamesMale:   []string{"Mateus", "Lucas", "Rafael", "Gabriel", "Tiago"},
			GivenNamesFemale: []string{"Ana", "Beatriz", "Camila", "Larissa", "Fernanda"},
			FamilyNames:      []string{"Silva", "Santos", "Oliveira", "Pereira", "Costa"},
		},
		"host_nation": {
			GivenNamesMale:   []string{"Omar", "Karim", "Hassan", "Yusuf", "Tariq"},
			GivenNamesFemale: []string{"Layla", "Amina", "Fatima", "Noor", "Zainab"},
			FamilyNames:      []string{"Al-Masri", "Haddad", "Khalil", "Nasser", "Saleh"},
		},
		"opposing_force": {
			GivenNamesMale:   []string{"Igor", "Viktor", "Dmitri", "Sergei", "Andrei"},
			GivenNamesFemale: []string{"Irina", "Olga", "Yelena", "Natasha", "Svetlana"},
			FamilyNames:      []string{"Volkov", "Petrov", "Ivanov", "Sokolov", "Orlov"},
		},
	}
}

func defaultInjuryPools() map[models.InjuryType][]SnomedEntry {
	return map[models.InjuryType][]SnomedEntry{
		models.InjuryDisease: {
			{Code: "386661006", System: "SNOMED-CT", Display: "Fever", Weight: 3},
			{Code: "62315008", System: "SNOMED-CT", Display: "Diarrhea", Weight: 2},
			{Code: "49727002", System: "SNOMED-CT", Display: "Cough", Weight: 2},
			{Code: "271825005", System: "SNOMED-CT", Display: "Heat exhaustion", Weight: 2},
			{Code: "74964007", System: "SNOMED-CT", Display: "Other symptom", Weight: 1},
		},
		models.InjuryNonBattle: {
			{Code: "125605004", System: "SNOMED-CT", Display: "Fracture of bone", Weight: 3},
			{Code: "44465007", System: "SNOMED-CT", Display: "Sprain", Weight: 3},
			{Code: "125666000", System: "SNOMED-CT", Display: "Laceration", Weight: 2},
			{Code: "283545005", System: "SNOMED-CT", Display: "Burn injury", Weight: 1},
			{Code: "263091006", System: "SNOMED-CT", Display: "Back injury", Weight: 2},
		},
		models.InjuryBattle: {
			{Code: "212607009", System: "SNOMED-CT", Display: "Gunshot wound", Weight: 3},
			{Code: "283530006", System: "SNOMED-CT", Display: "Blast injury", Weight: 3},
			{Code: "127333007", System: "SNOMED-CT", Display: "Traumatic amputation", Weight: 1},
			{Code: "19130008", System: "SNOMED-CT", Display: "Penetrating chest wound", Weight: 2},
			{Code: "20262006", System: "SNOMED-CT", Display: "Traumatic brain injury", Weight: 1},
			{Code: "274286008", System: "SNOMED-CT", Display: "Shrapnel wound", Weight: 2},
		},
	}
}

func defaultWarfarePatterns() map[models.WarfarePattern]*WarfareProfile {
	mk := func(poly, sev, mort float64, codeWeights map[string]float64, triageBias map[models.TriageCategory]float64, correlated []string) *WarfareProfile {
		return &WarfareProfile{
			PolytraumaRate:      poly,
			SeverityMultiplier:  sev,
			MortalityMultiplier: mort,
			InjuryCodeWeights:   codeWeights,
			TriageBias:          triageBias,
			CorrelatedCodes:     correlated,
		}
	}
	conventional := mk(0.20, 1.0, 1.0,
		map[string]float64{"212607009": 3, "283530006": 2},
		map[models.TriageCategory]float64{models.TriageT1: 0},
		[]string{"212607009", "283530006", "19130008"},
	)
	return map[models.WarfarePattern]*WarfareProfile{
		models.WarfareConventional: conventional,
		models.WarfareArtillery: mk(0.45, 1.6, 1.4,
			map[string]float64{"283530006": 4, "127333007": 2, "274286008": 3},
			map[models.TriageCategory]float64{models.TriageT1: 0.8},
			[]string{"283530006", "274286008", "127333007", "20262006"},
		),
		models.WarfareUrban: mk(0.35, 1.3, 1.1,
			map[string]float64{"212607009": 3, "19130008": 2, "125666000": 2},
			map[models.TriageCategory]float64{models.TriageT1: 0.4},
			[]string{"212607009", "19130008", "283530006"},
		),
		models.WarfareDrone: mk(0.38, 1.4, 1.2,
			map[string]float64{"283530006": 3, "274286008": 3, "20262006": 2},
			map[models.TriageCategory]float64{models.TriageT1: 0.5},
			[]string{"283530006", "274286008", "19130008"},
		),
		// The spec's open question requires these four to have explicit
		// polytrauma entries rather than silently falling back to
		// conventional; ship conventional-derived defaults so a scenario
		// using them still resolves, but resolve() still rejects a
		// warfare_flags entry that lacks ANY catalog or override entry.
		models.WarfareGuerrilla: mk(0.22, 1.05, 1.0,
			conventional.InjuryCodeWeights, conventional.TriageBias, conventional.CorrelatedCodes),
		models.WarfareNaval: mk(0.25, 1.1, 1.05,
			conventional.InjuryCodeWeights, conventional.TriageBias, conventional.CorrelatedCodes),
		models.WarfareCBRN: mk(0.30, 1.2, 1.3,
			conventional.InjuryCodeWeights, conventional.TriageBias, conventional.CorrelatedCodes),
		models.WarfarePeacekeeping: mk(0.12, 0.9, 0.8,
			conventional.InjuryCodeWeights, conventional.TriageBias, conventional.CorrelatedCodes),
	}
}

// defaultTransitionMatrices builds one row-stochastic matrix per triage
// category, indexed POI, Role1..4, KIA, RTD. KIA/RTD rows are identity.
// POI places >=0.85 on Role1 and <=0.04 on direct Role>=2 routes.
func defaultTransitionMatrices() map[models.TriageCategory]TransitionMatrix {
	build := func(poiRole1, poiRole2, poiRole3 float64,
		role1Row, role2Row, role3Row, role4Row [numStates]float64) TransitionMatrix {
		var m TransitionMatrix
		poi := stateIndexOf(models.FacilityPOI)
		r1 := stateIndexOf(models.FacilityRole1)
		r2 := stateIndexOf(models.FacilityRole2)
		r3 := stateIndexOf(models.FacilityRole3)
		r4 := stateIndexOf(models.FacilityRole4)
		kia := stateIndexOf(models.FacilityKIA)
		rtd := stateIndexOf(models.FacilityRTD)

		m[poi][r1] = poiRole1
		m[poi][r2] = poiRole2
		m[poi][r3] = poiRole3
		m[poi][kia] = 1 - poiRole1 - poiRole2 - poiRole3 - 0.01
		m[poi][rtd] = 0.01

		m[r1] = role1Row
		m[r2] = role2Row
		m[r3] = role3Row
		m[r4] = role4Row
		m[kia][kia] = 1.0
		m[rtd][rtd] = 1.0
		return m
	}

	t1 := build(0.90, 0.03, 0.02,
		[numStates]float64{0, 0.02, 0.55, 0.10, 0, 0.15, 0.18},
		[numStates]float64{0, 0, 0.03, 0.55, 0.12, 0.12, 0.18},
		[numStates]float64{0, 0, 0, 0.04, 0.55, 0.10, 0.31},
		[numStates]float64{0, 0, 0, 0, 0, 0.20, 0.80},
	)
	t2 := build(0.92, 0.02, 0.01,
		[numStates]float64{0, 0.03, 0.60, 0.05, 0, 0.05, 0.27},
		[numStates]float64{0, 0, 0.05, 0.45, 0.08, 0.04, 0.38},
		[numStates]float64{0, 0, 0, 0.06, 0.40, 0.03, 0.51},
		[numStates]float64{0, 0, 0, 0, 0, 0.06, 0.94},
	)
	t3 := build(0.93, 0.01, 0.01,
		[numStates]float64{0, 0.04, 0.55, 0.02, 0, 0.01, 0.38},
		[numStates]float64{0, 0, 0.06, 0.35, 0.04, 0.01, 0.54},
		[numStates]float64{0, 0, 0, 0.08, 0.30, 0.01, 0.61},
		[numStates]float64{0, 0, 0, 0, 0, 0.01, 0.99},
	)
	return map[models.TriageCategory]TransitionMatrix{
		models.TriageT1: t1,
		models.TriageT2: t2,
		models.TriageT3: t3,
	}
}
