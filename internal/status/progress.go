package status

import "github.com/lexacademy/checkout/internal/models"

// track is the fixed order progression; CANCELLED sits outside it.
var track = []struct {
	status models.OrderStatus
	label  string
}{
	{models.OrderPending, "รอชำระเงิน"},
	{models.OrderPaid, "ชำระเงินแล้ว"},
	{models.OrderShipping, "กำลังจัดส่ง"},
	{models.OrderCompleted, "สำเร็จ"},
}

// Step is one stage of the progress track
type Step struct {
	Status  models.OrderStatus `json:"status"`
	Label   string             `json:"label"`
	Reached bool               `json:"reached"`
}

// Progress is the rendered track for one order
type Progress struct {
	Status    models.OrderStatus `json:"status"`
	Stage     int                `json:"stage"`
	Cancelled bool               `json:"cancelled"`
	Steps     []Step             `json:"steps"`
}

// Stage maps a status onto the 0..3 track. CANCELLED and unknown statuses
// return (-1, false).
func Stage(s models.OrderStatus) (int, bool) {
	for i, st := range track {
		if st.status == s {
			return i, true
		}
	}
	return -1, false
}

// Track marks every stage up to and including the current one as reached.
func Track(s models.OrderStatus) Progress {
	stage, onTrack := Stage(s)

	steps := make([]Step, len(track))
	for i, st := range track {
		steps[i] = Step{
			Status:  st.status,
			Label:   st.label,
			Reached: onTrack && i <= stage,
		}
	}

	return Progress{
		Status:    s,
		Stage:     stage,
		Cancelled: s == models.OrderCancelled,
		Steps:     steps,
	}
}
