package service

import "fmt"

func verificationEmailTemplate(name, verifyURL, appName string) (string, string) {
	subject := fmt.Sprintf("Confirma tu correo en %s", appName)
	body := fmt.Sprintf(`Hola %s,

Gracias por registrarte. Confirma tu correo haciendo clic en este enlace:
%s

Si no creaste esta cuenta, puedes ignorar este mensaje.

Saludos,
El equipo de %s`, name, verifyURL, appName)

	return subject, body
}

func contactEmailTemplate(name, email, message, appName string) (string, string) {
	subject := fmt.Sprintf("[%s] Nuevo mensaje de contacto de %s", appName, name)
	body := fmt.Sprintf(`Nombre: %s
Correo: %s

%s`, name, email, message)

	return subject, body
}
