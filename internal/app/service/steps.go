package service

// Personal (PF) onboarding steps. current_step on the customer is the
// next step to perform; StepDone means every step has been completed.
const (
	StepPersonalInfo   = 1 // name, username, email
	StepPhone          = 2 // phone number + SMS confirmation
	StepDocumentImage  = 3 // identity document photos
	StepPersonalDetail = 4 // filiation, document data, marital status
	StepSelfie         = 5
	StepAddress        = 6
	StepPassword       = 7
	StepDone           = 8
)

// stepNames index the PF steps for history and log messages
var stepNames = map[int]string{
	StepPersonalInfo:   "dados pessoais",
	StepPhone:          "telefone",
	StepDocumentImage:  "documento de identidade",
	StepPersonalDetail: "dados complementares",
	StepSelfie:         "selfie",
	StepAddress:        "endereço",
	StepPassword:       "senha",
}

// StepName returns the label used in history rows for a PF step
func StepName(step int) string {
	if name, ok := stepNames[step]; ok {
		return name
	}
	return "desconhecido"
}

// canRunStep enforces strict ordering: a step may run only when every
// earlier step has completed. Re-running an already completed step is
// allowed, so corrections do not require restarting the flow.
func canRunStep(currentStep, step int) bool {
	return currentStep >= step
}

// advanceStep computes the next current_step after completing a step.
// Progression is monotonic: re-running an earlier step never moves the
// customer backwards.
func advanceStep(currentStep, completed int) int {
	next := completed + 1
	if next > StepDone {
		next = StepDone
	}
	if next < currentStep {
		return currentStep
	}
	return next
}
