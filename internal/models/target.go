package models

// Target is a root domain under test. Jobs reference it only through
// provenance (a root job's rows carry the domain as FromAsset), so deleting
// a target leaves historical jobs in place.
type Target struct {
	TaskID string `gorm:"primaryKey;type:varchar(36)" json:"task_id"`
	Domain string `gorm:"uniqueIndex" json:"domain"`
}

// AssetEdge is the explicit parent-asset -> child-job link written at
// chaining time. It replaces re-deriving lineage from provenance string
// matching; the tree builder consults edges first.
type AssetEdge struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ParentKind    string `gorm:"type:varchar(10)" json:"parent_kind"`
	ParentAssetID uint   `gorm:"index" json:"parent_asset_id"`
	ParentKey     string `gorm:"index;type:varchar(200)" json:"parent_key"`
	ChildJobID    string `gorm:"index;type:varchar(36)" json:"child_job_id"`
}
