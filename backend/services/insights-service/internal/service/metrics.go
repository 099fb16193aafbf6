package service

import "agriweather/backend/services/insights-service/internal/models"

// Gross product keys shown in the cereal analysis.
const (
	MetricRapeseed  = "PBV3COLZ"
	MetricDurum     = "PBV3BLED"
	MetricSoftWheat = "PBV3BLET"
)

var metricLabels = map[string]string{
	MetricRapeseed:  "Produit Brut : colza (€)",
	MetricDurum:     "Produit Brut : blé dur (€)",
	MetricSoftWheat: "Produit Brut : blé tendre et épeautre (€)",
}

// CerealKeys lists the default metric keys in display order.
func CerealKeys() []string {
	return []string{MetricRapeseed, MetricDurum, MetricSoftWheat}
}

// ExtractSurveyMetric returns the numeric value of key in the view's survey,
// or 0 when there is no survey, no such key or a non-numeric value.
func ExtractSurveyMetric(view models.UnitWithSurvey, key string) float64 {
	return view.SurveyPayload.Metric(key)
}

// SurveyMetrics extracts the given keys with their labels. Unlabelled keys use the key itself.
func SurveyMetrics(view models.UnitWithSurvey, keys []string) []models.SurveyMetric {
	out := make([]models.SurveyMetric, 0, len(keys))
	for _, key := range keys {
		label, ok := metricLabels[key]
		if !ok {
			label = key
		}
		out = append(out, models.SurveyMetric{
			Key:   key,
			Label: label,
			Value: ExtractSurveyMetric(view, key),
		})
	}
	return out
}

// CerealProducts returns the rapeseed, durum wheat and soft wheat gross products.
func CerealProducts(view models.UnitWithSurvey) []models.SurveyMetric {
	return SurveyMetrics(view, CerealKeys())
}
