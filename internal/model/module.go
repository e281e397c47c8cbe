package model

// swagger:model Module
type Module struct {
	BaseModel
	Title       string             `gorm:"size:255;not null" json:"title"`
	Description string             `gorm:"type:text" json:"description"`
	Questions   []Question         `gorm:"foreignKey:ModuleID" json:"questions,omitempty"`
	ExamConfig  *ExamConfiguration `gorm:"foreignKey:ModuleID" json:"examConfig,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}
