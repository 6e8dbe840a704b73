package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistratoStep paso del flujo de salida (distrato). Cada paso pertenece a una sola pista.
type DistratoStep string

// Pista con contrato vigente (4 pasos).
const (
	DistratoChurnSolicitado  DistratoStep = "churn_solicitado"
	DistratoDistratoEnviado  DistratoStep = "distrato_enviado"
	DistratoDistratoAssinado DistratoStep = "distrato_assinado"
	DistratoChurnEfetivado   DistratoStep = "churn_efetivado"
)

// Pista sin contrato vigente (2 pasos).
const (
	DistratoSemContratoSolicitado DistratoStep = "sem_contrato_solicitado"
	DistratoSemContratoEfetivado  DistratoStep = "sem_contrato_efetivado"
)

// DistratoTrack pista elegida al iniciar el distrato; nunca cambia después.
type DistratoTrack string

const (
	TrackWithContract    DistratoTrack = "with_contract"
	TrackWithoutContract DistratoTrack = "without_contract"
)

var trackSteps = map[DistratoTrack][]DistratoStep{
	TrackWithContract:    {DistratoChurnSolicitado, DistratoDistratoEnviado, DistratoDistratoAssinado, DistratoChurnEfetivado},
	TrackWithoutContract: {DistratoSemContratoSolicitado, DistratoSemContratoEfetivado},
}

// Steps devuelve los pasos de la pista en orden.
func (t DistratoTrack) Steps() []DistratoStep {
	return append([]DistratoStep(nil), trackSteps[t]...)
}

// FirstStep primer paso de la pista.
func (t DistratoTrack) FirstStep() DistratoStep {
	return trackSteps[t][0]
}

// Track devuelve la pista a la que pertenece el paso; ok=false si el paso es desconocido.
func (s DistratoStep) Track() (DistratoTrack, bool) {
	for track, steps := range trackSteps {
		for _, st := range steps {
			if st == s {
				return track, true
			}
		}
	}
	return "", false
}

// Valid informa si el paso pertenece a alguna pista.
func (s DistratoStep) Valid() bool {
	_, ok := s.Track()
	return ok
}

// ProductChurn churn de un solo producto del cliente. No altera el estado global del cliente.
type ProductChurn struct {
	ID               string
	ClientID         string
	ProductSlug      ProductSlug
	Step             DistratoStep
	InitiatedAt      time.Time
	HasValidContract bool
	MonthlyValue     decimal.Decimal
}
