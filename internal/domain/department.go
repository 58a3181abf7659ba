package domain

import "time"

// DepartmentCode identifies a department's workflow configuration.
type DepartmentCode string

const (
	DepartmentComercial  DepartmentCode = "comercial"
	DepartmentFinanceiro DepartmentCode = "financeiro"
	DepartmentCompras    DepartmentCode = "compras"
	DepartmentTI         DepartmentCode = "ti"
	DepartmentOperacoes  DepartmentCode = "operacoes"
)

// Department represents a high-level organizational unit.
type Department struct {
	ID          string
	Code        DepartmentCode
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Unit is a physical location (condominio/garagem) tickets can be scoped
// to. Ticket numbering is sequential per unit.
type Unit struct {
	ID        string
	Name      string
	City      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category groups tickets within a department.
type Category struct {
	ID           string
	DepartmentID string
	Name         string
	IsActive     bool
	CreatedAt    time.Time
}
