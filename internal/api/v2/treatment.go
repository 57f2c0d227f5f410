package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmwatch/farmwatch/internal/datastore"
	"github.com/farmwatch/farmwatch/internal/pestcontrol"
)

// defaultSavedPlans is how many top plans are stored when saving.
const defaultSavedPlans = 3

// TreatmentRequest asks for an integrated treatment plan.
type TreatmentRequest struct {
	PestType      string                   `json:"pest_type"`
	DiseaseType   string                   `json:"disease_type"`
	Severity      int                      `json:"severity_level"`
	Environment   *pestcontrol.Environment `json:"environmental_conditions"`
	Save          bool                     `json:"save"`
	PestDiseaseID *uint                    `json:"pest_disease_id"`
}

// TreatmentResponse is the generated plan and, when saved, the stored rows.
type TreatmentResponse struct {
	*pestcontrol.IntegratedPlan
	Saved []datastore.TreatmentPlan `json:"saved_plans,omitempty"`
}

func (c *Controller) initTreatmentRoutes() {
	c.Group.POST("/treatment-plan", c.PostTreatmentPlan)
}

// PostTreatmentPlan handles POST /api/v2/treatment-plan
func (c *Controller) PostTreatmentPlan(ctx echo.Context) error {
	var req TreatmentRequest
	if err := ctx.Bind(&req); err != nil {
		return c.badRequest(ctx, err, "Invalid request body")
	}
	if req.PestType == "" && req.DiseaseType == "" {
		return c.badRequest(ctx, nil, "pest_type or disease_type is required")
	}
	if req.Severity == 0 {
		req.Severity = 3
	}

	plan, err := c.Advisor.GenerateIntegratedPlan(req.PestType, req.DiseaseType, req.Severity, req.Environment)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to generate treatment plan", 0)
	}

	resp := TreatmentResponse{IntegratedPlan: plan}
	if req.Save {
		saved, err := c.Advisor.SavePlan(plan, req.PestDiseaseID, defaultSavedPlans)
		if err != nil {
			return c.HandleError(ctx, err, "Failed to save treatment plan", 0)
		}
		resp.Saved = saved
	}
	return ctx.JSON(http.StatusOK, resp)
}
