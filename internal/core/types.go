package core

import "ixforge/pkg/domain"

type (
	Code          = domain.Code
	SetDelta      = domain.SetDelta
	Spec          = domain.Spec
	ParRow        = domain.ParRow
	ParTable      = domain.ParTable
	ParData       = domain.ParData
	Unit          = domain.Unit
	CommitRecord  = domain.CommitRecord
	ScenarioStore = domain.ScenarioStore
	DataFunc      = domain.DataFunc
)
