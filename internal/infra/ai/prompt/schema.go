package prompt

// summarySchemaTemplate is the fixed structured-summary shape the model must
// fill. Field names here are load-bearing: the session cache projections and
// the lab-trend enrichment read them back verbatim.
const summarySchemaTemplate = `{
    "patient_demographics": {
        "age": "exact age",
        "gender": "exact gender",
        "ethnicity": "if available",
        "occupation": "if available",
        "risk_factors": ["list of risk factors"]
    },
    "vital_signs": {
        "measurements": [
            {
                "name": "exact name",
                "value": "exact value",
                "unit": "exact unit",
                "timestamp": "exact time",
                "trend": "trend analysis if multiple readings",
                "clinical_significance": "interpretation of the value"
            }
        ],
        "overall_stability": "Assessment of vital signs stability"
    },
    "chief_complaints": {
        "primary": "main complaint",
        "secondary": ["other complaints"],
        "onset": "when symptoms started",
        "severity": "severity assessment",
        "progression": "how symptoms have changed"
    },
    "medical_history": {
        "past_conditions": ["list of past medical conditions"],
        "surgeries": ["list of past surgeries with dates"],
        "allergies": ["list of allergies and reactions"],
        "family_history": ["relevant family medical history"],
        "social_history": {
            "lifestyle": ["relevant lifestyle factors"],
            "habits": ["relevant habits"],
            "environmental_factors": ["relevant environmental exposures"]
        }
    },
    "symptoms_timeline": [
        {
            "symptom": "exact symptom",
            "onset": "start date/time",
            "duration": "duration of symptom",
            "severity": "severity level",
            "triggers": ["factors that worsen/improve"],
            "progression": "how symptom has changed"
        }
    ],
    "lab_results": {
        "tests": [
            {
                "name": "exact test name",
                "value": "exact value",
                "unit": "exact unit",
                "timestamp": "exact time",
                "reference_range": "if available",
                "trend": "trend analysis if sequential",
                "clinical_significance": "result interpretation",
                "action_needed": "required medical actions based on result"
            }
        ],
        "critical_values": ["Any critical lab values requiring immediate attention"],
        "test_trends": [
            {
                "test_name": "name of test",
                "values_over_time": [
                    {
                        "value": "exact value",
                        "timestamp": "exact time",
                        "trend_direction": "increasing/decreasing/stable",
                        "clinical_impact": "significance of trend"
                    }
                ]
            }
        ]
    },
    "diagnosis": {
        "primary": {
            "condition": "primary diagnosis",
            "certainty": "diagnostic certainty",
            "basis": ["clinical findings supporting diagnosis"],
            "stage": "stage or severity if applicable"
        },
        "secondary": [
            {
                "condition": "secondary diagnosis",
                "relationship": "relationship to primary diagnosis",
                "impact": "impact on treatment plan"
            }
        ],
        "differential_diagnoses": ["potential alternative diagnoses to consider"],
        "ruled_out": ["diagnoses that were considered and ruled out"]
    },
    "medications": {
        "current": [
            {
                "name": "medication name",
                "dosage": "exact dosage",
                "frequency": "administration frequency",
                "route": "administration route",
                "purpose": "therapeutic purpose",
                "start_date": "when started",
                "duration": "planned duration",
                "side_effects": ["observed side effects"],
                "interactions": ["potential drug interactions"],
                "monitoring_needs": ["parameters to monitor"]
            }
        ],
        "discontinued": [
            {
                "name": "medication name",
                "reason": "reason for discontinuation",
                "date_stopped": "when stopped"
            }
        ],
        "allergies": ["medication allergies and reactions"]
    },
    "treatment_plan": {
        "immediate_actions": ["urgent medical steps"],
        "short_term_goals": ["treatment objectives for next 24-48 hours"],
        "long_term_goals": ["treatment objectives for discharge"],
        "interventions": [
            {
                "type": "intervention type",
                "details": "specific details",
                "frequency": "how often",
                "duration": "how long",
                "expected_outcome": "anticipated results"
            }
        ],
        "monitoring_requirements": ["specific parameters to track"],
        "lifestyle_modifications": ["recommended lifestyle changes"]
    },
    "follow_up_plan": {
        "appointments": [
            {
                "specialist": "type of provider",
                "timeframe": "when to follow up",
                "purpose": "reason for follow up",
                "preparation": ["any required preparation"]
            }
        ],
        "monitoring": ["parameters to monitor at home"],
        "warning_signs": ["symptoms requiring immediate attention"],
        "care_coordination": ["coordination between providers"]
    },
    "medical_entities": {
        "conditions": [
            {
                "name": "exact condition name",
                "status": "current status",
                "severity": "severity level",
                "first_noted": "onset date",
                "risk_factors": [
                    {
                        "factor": "specific risk factor",
                        "impact_percentage": "quantified risk impact",
                        "evidence": "clinical evidence",
                        "mitigation_strategy": "risk reduction approach"
                    }
                ],
                "correlations": [
                    {
                        "related_finding": "correlated condition/finding",
                        "correlation_strength": "statistical correlation",
                        "clinical_significance": "medical importance",
                        "evidence_base": "research/clinical evidence supporting correlation"
                    }
                ],
                "future_risks": [
                    {
                        "potential_condition": "possible future condition",
                        "risk_percentage": "probability estimation",
                        "time_frame": "expected time of manifestation",
                        "preventive_measures": ["specific preventive actions"],
                        "supporting_evidence": "clinical basis for prediction",
                        "monitoring_plan": "recommended follow-up plan"
                    }
                ],
                "treatment_implications": {
                    "recommended_interventions": ["specific treatments"],
                    "contraindications": ["treatments to avoid"],
                    "expected_outcomes": ["projected treatment results"]
                }
            }
        ],
        "vital_signs": [
            {
                "name": "measurement name",
                "value": "exact value",
                "unit": "measurement unit",
                "timestamp": "exact time",
                "status": "current status",
                "clinical_impact": "medical significance",
                "trend_analysis": {
                    "pattern": "trend pattern",
                    "significance": "clinical importance",
                    "recommendations": ["clinical actions based on trend"]
                }
            }
        ],
        "procedures": [
            {
                "name": "procedure name",
                "type": "procedure type",
                "date": "procedure date",
                "outcome": "procedure outcome",
                "complications": ["any complications"],
                "follow_up_needed": "follow-up requirements"
            }
        ],
        "medications": [
            {
                "name": "medication name",
                "class": "medication class",
                "indications": ["medical conditions"],
                "contraindications": ["conditions where medication should not be used"],
                "interactions": ["known drug interactions"],
                "monitoring_parameters": ["what to monitor"]
            }
        ]
    },
    "visualizations": [
        {
            "title": "visualization title",
            "type": "chart type",
            "data": {
                "x_axis": {
                    "label": "time unit",
                    "values": ["timestamps"]
                },
                "y_axis": {
                    "label": "measurement with unit",
                    "values": ["exact values"],
                    "reference_ranges": ["normal ranges"]
                }
            },
            "source": "data source",
            "clinical_significance": "medical importance",
            "annotations": ["important points to note"],
            "recommendations": ["clinical decisions based on visualization"]
        }
    ]
}`
