package synth

import (
	"testing"

	"github.com/raphaelgruber/civickb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairsFallbacks(t *testing.T) {
	s := New("0432 905511")
	pairs := s.Pairs(models.ServiceRecord{Name: "Carta d'Identità"})

	require.Len(t, pairs, 5)
	assert.Equal(t, "Come posso richiedere Carta d'Identità?", pairs[0].Question)
	assert.Contains(t, pairs[0].Answer, "0432 905511")
	assert.Equal(t, "Quali documenti servono per Carta d'Identità?", pairs[1].Question)
	assert.Equal(t, "Quanto costa Carta d'Identità?", pairs[2].Question)
	assert.Equal(t, "Il costo di Carta d'Identità varia in base al tipo di richiesta. Per informazioni precise contatta l'ufficio al 0432 905511.", pairs[2].Answer)
	assert.Equal(t, "Quali sono gli orari per Carta d'Identità?", pairs[3].Question)
	assert.Contains(t, pairs[3].Answer, "dal lunedì al venerdì")
	assert.Equal(t, "Quanto tempo serve per ottenere Carta d'Identità?", pairs[4].Question)

	for i, p := range pairs {
		assert.GreaterOrEqual(t, len([]rune(p.Answer)), 20, "pair %d answer must clear the validator minimum", i)
	}
}

func TestPairsPreferExtractedValues(t *testing.T) {
	s := New("0432 905511")
	pairs := s.Pairs(models.ServiceRecord{
		Name:        "TARI",
		Cost:        "€10",
		OfficeHours: "Lunedì-Venerdì: 8:30-12:30",
	})

	assert.Equal(t, "€10", pairs[2].Answer)
	assert.Equal(t, "Lunedì-Venerdì: 8:30-12:30", pairs[3].Answer)
}

func TestPairsBlankValuesFallBack(t *testing.T) {
	pairs := New("000").Pairs(models.ServiceRecord{Name: "TARI", Cost: "  ", OfficeHours: ""})
	assert.Contains(t, pairs[2].Answer, "varia in base al tipo di richiesta")
	assert.Contains(t, pairs[3].Answer, "contatta il numero 000")
}

func TestPairsDeterministic(t *testing.T) {
	s := New("0432 905511")
	r := models.ServiceRecord{Name: "Anagrafe", Cost: "gratuito"}
	assert.Equal(t, s.Pairs(r), s.Pairs(r))
}

func TestApply(t *testing.T) {
	r := models.ServiceRecord{Name: "Anagrafe", QAPairs: []models.QAPair{{Question: "old", Answer: "old"}}}
	New("0432 905511").Apply(&r)
	assert.Len(t, r.QAPairs, 5)
	assert.NotEqual(t, "old", r.QAPairs[0].Question)
}
