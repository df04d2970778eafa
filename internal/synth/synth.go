// Package synth produces the canonical question/answer pairs for a service.
package synth

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/civickb/internal/models"
)

// Synthesizer builds QA pairs from templates parameterized by service name
// and the organization's contact phone.
type Synthesizer struct {
	phone string
}

// New creates a synthesizer referencing phone as the contact channel.
func New(phone string) *Synthesizer {
	return &Synthesizer{phone: phone}
}

// Pairs returns exactly five pairs: how to request, required documents,
// cost, office hours and turnaround time.
func (s *Synthesizer) Pairs(r models.ServiceRecord) []models.QAPair {
	n := r.Name
	return []models.QAPair{
		{
			Question: fmt.Sprintf("Come posso richiedere %s?", n),
			Answer: fmt.Sprintf("Per richiedere %s devi prenotare un appuntamento presso l'ufficio comunale competente. "+
				"Puoi farlo telefonando al numero %s o tramite questo assistente virtuale.", n, s.phone),
		},
		{
			Question: fmt.Sprintf("Quali documenti servono per %s?", n),
			Answer: fmt.Sprintf("Per %s generalmente servono: documento di identità valido, codice fiscale e eventuale documentazione specifica. "+
				"Ti consiglio di verificare i requisiti esatti al momento della prenotazione.", n),
		},
		{
			Question: fmt.Sprintf("Quanto costa %s?", n),
			Answer: prefer(r.Cost, fmt.Sprintf("Il costo di %s varia in base al tipo di richiesta. "+
				"Per informazioni precise contatta l'ufficio al %s.", n, s.phone)),
		},
		{
			Question: fmt.Sprintf("Quali sono gli orari per %s?", n),
			Answer: prefer(r.OfficeHours, fmt.Sprintf("L'ufficio è aperto generalmente dal lunedì al venerdì in orario mattutino. "+
				"Per orari precisi contatta il numero %s.", s.phone)),
		},
		{
			Question: fmt.Sprintf("Quanto tempo serve per ottenere %s?", n),
			Answer: fmt.Sprintf("I tempi di rilascio di %s variano. Generalmente il servizio viene erogato entro pochi giorni dalla richiesta. "+
				"Per informazioni precise contatta l'ufficio competente.", n),
		},
	}
}

// Apply replaces the record's QA pairs with the synthesized set.
func (s *Synthesizer) Apply(r *models.ServiceRecord) {
	r.QAPairs = s.Pairs(*r)
}

func prefer(extracted, fallback string) string {
	if strings.TrimSpace(extracted) != "" {
		return extracted
	}
	return fallback
}
