package models

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// User represents a library account, keyed by cedula (national id)
type User struct {
	Cedula           string     `gorm:"column:usr_cedula;primaryKey;size:13" json:"cedula"`
	FirstName        string     `gorm:"column:usr_primer_nombre;size:100;not null" json:"first_name"`
	MiddleName       string     `gorm:"column:usr_segundo_nombre;size:100" json:"middle_name"`
	LastName         string     `gorm:"column:usr_primer_apellido;size:100;not null" json:"last_name"`
	SecondLastName   string     `gorm:"column:usr_segundo_apellido;size:100" json:"second_last_name"`
	FullName         string     `gorm:"column:usr_nombre_completo;size:400" json:"full_name"`
	Nickname         string     `gorm:"column:usr_nickname;size:40;index" json:"nickname"`
	Email            string     `gorm:"column:usr_email;size:250;not null;index" json:"email"`
	PasswordHash     string     `gorm:"column:usr_contrasenia;not null" json:"-"`
	BirthDate        time.Time  `gorm:"column:usr_fecha_nacimiento;not null" json:"birth_date"`
	Role             Role       `gorm:"column:usr_rol;not null" json:"role"`
	Status           UserStatus `gorm:"column:usr_estado;size:2;not null" json:"status"`
	VerificationCode *string    `gorm:"column:usr_codigo_verificacion" json:"-"`
	Verified         bool       `gorm:"column:usr_verificado;not null;default:false" json:"verified"`
	CreatedAt        time.Time  `gorm:"column:usr_fecha_bd" json:"created_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "usuario"
}

// DeriveNames computes the full name and the login nickname from the name parts and birth date.
//
// Full name is "last second-last first middle" with empty parts skipped. The nickname is the first
// letter of each given name, the first surname, the first letter of the second surname and the
// day of birth (UTC), all lowercase.
func DeriveNames(first, middle, last, secondLast string, birthDate time.Time) (fullName, nickname string) {
	fullName = strings.Join(strings.Fields(strings.Join([]string{last, secondLast, first, middle}, " ")), " ")

	var b strings.Builder
	b.WriteString(initial(first))
	b.WriteString(initial(middle))
	b.WriteString(strings.ToLower(strings.TrimSpace(last)))
	b.WriteString(initial(secondLast))
	if !birthDate.IsZero() {
		b.WriteString(strconv.Itoa(birthDate.UTC().Day()))
	}
	return fullName, b.String()
}

// ApplyDerivedFields overwrites FullName and Nickname from the current name parts.
// Call before every save.
func (u *User) ApplyDerivedFields() {
	u.FullName, u.Nickname = DeriveNames(u.FirstName, u.MiddleName, u.LastName, u.SecondLastName, u.BirthDate)
}

func initial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return strings.ToLower(string(r))
}
